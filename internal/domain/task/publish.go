package task

// PublishTask asks a publish worker to push one generation of the public
// product list to the knowledge store.
type PublishTask struct {
	GeneratedAt string `json:"generated_at"` // catalog generation time, RFC3339
	FilePath    string `json:"file_path"`    // written public product list
	FileName    string `json:"file_name"`    // name the file is published under
}

func (t *PublishTask) TaskType() string {
	return "PublishTask"
}

func (t *PublishTask) TaskValue() ([]byte, error) {
	return DefaultTaskValue(t)
}
