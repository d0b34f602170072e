package task

type PublishRetryTask struct {
	GeneratedAt string `json:"generated_at"`
	FilePath    string `json:"file_path"`
	FileName    string `json:"file_name"`
	RetryCount  int    `json:"retry_count"` // Number of times this publish has been retried
	Error       string `json:"error"`       // Error message from the last failure
}

func (t *PublishRetryTask) TaskType() string {
	return "PublishRetryTask"
}

func (t *PublishRetryTask) TaskValue() ([]byte, error) {
	return DefaultTaskValue(t)
}
