package client

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"catalog/sync/internal/config"

	log "github.com/sirupsen/logrus"
	"resty.dev/v3"
)

// KnowledgePublisher replaces a named file in a vector store
type KnowledgePublisher interface {
	// Publish uploads data as fileName, attaches it and removes every older
	// file with the same name. It returns the id of the new file.
	Publish(ctx context.Context, fileName string, data []byte) (string, error)
}

type vectorStoreFile struct {
	ID string `json:"id"`
}

type vectorStoreFileList struct {
	Data    []vectorStoreFile `json:"data"`
	HasMore bool              `json:"has_more"`
	LastID  string            `json:"last_id"`
}

type fileObject struct {
	ID       string `json:"id"`
	Filename string `json:"filename"`
}

type vectorStorePublisher struct {
	cfg        config.KnowledgeConfig
	httpClient *resty.Client
}

func NewKnowledgePublisher(cfg config.KnowledgeConfig) KnowledgePublisher {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 120
	}

	httpClient := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(time.Duration(timeout)*time.Second).
		SetAuthToken(cfg.APIKey).
		SetHeader("OpenAI-Beta", "assistants=v2")

	return &vectorStorePublisher{
		cfg:        cfg,
		httpClient: httpClient,
	}
}

func (p *vectorStorePublisher) Publish(ctx context.Context, fileName string, data []byte) (string, error) {
	existing, err := p.findFiles(ctx, fileName)
	if err != nil {
		return "", err
	}

	log.Infof("📤 Uploading %s (%d bytes)...", fileName, len(data))
	var uploaded fileObject
	resp, err := p.httpClient.R().
		SetContext(ctx).
		SetFileReader("file", fileName, bytes.NewReader(data)).
		SetMultipartFormData(map[string]string{"purpose": "assistants"}).
		SetResult(&uploaded).
		Post("/files")
	if err := checkResponse(resp, err, "upload file"); err != nil {
		return "", err
	}

	resp, err = p.httpClient.R().
		SetContext(ctx).
		SetBody(map[string]string{"file_id": uploaded.ID}).
		SetPathParam("store", p.cfg.VectorStoreID).
		Post("/vector_stores/{store}/files")
	if err := checkResponse(resp, err, "attach file"); err != nil {
		return "", err
	}
	log.Infof("✅ Attached %s to vector store %s", uploaded.ID, p.cfg.VectorStoreID)

	for _, old := range existing {
		if err := p.removeFile(ctx, old); err != nil {
			// the new file is already live, a leftover copy is only noise
			log.Warnf("⚠️ Failed to remove previous file %s: %v", old, err)
		}
	}

	return uploaded.ID, nil
}

// findFiles lists the store and keeps the files whose name matches
func (p *vectorStorePublisher) findFiles(ctx context.Context, fileName string) ([]string, error) {
	var matches []string
	after := ""
	for {
		var page vectorStoreFileList
		req := p.httpClient.R().
			SetContext(ctx).
			SetPathParam("store", p.cfg.VectorStoreID).
			SetQueryParam("limit", "100").
			SetResult(&page)
		if after != "" {
			req.SetQueryParam("after", after)
		}
		resp, err := req.Get("/vector_stores/{store}/files")
		if err := checkResponse(resp, err, "list vector store files"); err != nil {
			return nil, err
		}

		for _, f := range page.Data {
			var obj fileObject
			resp, err := p.httpClient.R().
				SetContext(ctx).
				SetPathParam("id", f.ID).
				SetResult(&obj).
				Get("/files/{id}")
			if err := checkResponse(resp, err, "retrieve file "+f.ID); err != nil {
				return nil, err
			}
			if obj.Filename == fileName {
				matches = append(matches, f.ID)
			}
		}

		if !page.HasMore || page.LastID == "" {
			break
		}
		after = page.LastID
	}

	log.Debugf("Found %d existing copies of %s", len(matches), fileName)
	return matches, nil
}

func (p *vectorStorePublisher) removeFile(ctx context.Context, id string) error {
	resp, err := p.httpClient.R().
		SetContext(ctx).
		SetPathParams(map[string]string{"store": p.cfg.VectorStoreID, "id": id}).
		Delete("/vector_stores/{store}/files/{id}")
	if err := checkResponse(resp, err, "detach file "+id); err != nil {
		return err
	}

	resp, err = p.httpClient.R().
		SetContext(ctx).
		SetPathParam("id", id).
		Delete("/files/{id}")
	if err := checkResponse(resp, err, "delete file "+id); err != nil {
		return err
	}

	log.Infof("🗑️ Removed previous file %s", id)
	return nil
}

func checkResponse(resp *resty.Response, err error, action string) error {
	if err != nil {
		return fmt.Errorf("failed to %s: %w", action, err)
	}
	if resp.IsError() {
		return fmt.Errorf("failed to %s: %d %s", action, resp.StatusCode(), resp.String())
	}
	return nil
}
