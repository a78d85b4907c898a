package domain

import (
	"time"

	"github.com/cityworks/incident-service/pkg/workflow"
)

// SubjectType differentiates citizen vs agent tokens.
type SubjectType string

const (
	SubjectTypeUser  SubjectType = "USER"
	SubjectTypeAgent SubjectType = "AGENT"
)

// Token represents issued authentication token metadata.
type Token struct {
	ID        string
	SubjectID string
	Subject   SubjectType
	Role      *workflow.Role
	ExpiresAt time.Time
	IssuedAt  time.Time
}
