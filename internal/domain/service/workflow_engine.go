package service

import "context"

// RemoteCredential is a credential object as the workflow engine stores it.
type RemoteCredential struct {
	Name string
	Type string
	Data map[string]any
}

// WorkflowEngine is the subset of the n8n REST API used to mirror credentials.
type WorkflowEngine interface {
	// CreateCredential returns the remote id of the new credential.
	CreateCredential(ctx context.Context, cred RemoteCredential) (string, error)
	DeleteCredential(ctx context.Context, id string) error
	HealthCheck(ctx context.Context) error
}
