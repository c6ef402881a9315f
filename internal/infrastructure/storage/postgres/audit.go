package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/klauspost/compress/zstd"

	"github.com/enxxi/v-board/internal/core/appctx"
	"github.com/enxxi/v-board/internal/core/id"
	"github.com/enxxi/v-board/internal/domain/cascade"
)

// CompressionAlgo specifies the compression algorithm used for a payload.
type CompressionAlgo string

const (
	CompressionNone CompressionAlgo = "none"
	CompressionZstd CompressionAlgo = "zstd"
)

// CascadeAuditEntry is one row of the cascade history. Tombstoned rows
// remain addressable by id; this table records when and through which
// cascade they were deleted.
type CascadeAuditEntry struct {
	ID               id.ID           `db:"id"`
	RootKind         string          `db:"root_kind"`
	RootID           id.ID           `db:"root_id"`
	ActorID          string          `db:"actor_id"`
	RowCount         int             `db:"row_count"`
	Plan             json.RawMessage `db:"plan"`
	PlanCompressed   []byte          `db:"plan_compressed"`
	CompressionAlgo  CompressionAlgo `db:"compression_algo"`
	DeletedAt        time.Time       `db:"deleted_at"`
	CreatedAt        time.Time       `db:"created_at"`
}

// auditPlan is the serialized shape of a cascade plan.
type auditPlan struct {
	Users       []string `json:"users,omitempty"`
	Posts       []string `json:"posts,omitempty"`
	Comments    []string `json:"comments,omitempty"`
	Attachments []string `json:"attachments,omitempty"`
}

// CascadeAuditor persists cascade audit entries, compressing large plans
// with zstd. Implements cascade.Recorder.
type CascadeAuditor struct {
	txManager         *TxManager
	encoder           *zstd.Encoder
	compressThreshold int // bytes
}

var _ cascade.Recorder = (*CascadeAuditor)(nil)

// NewCascadeAuditor creates an auditor writing through the tx manager.
func NewCascadeAuditor(txManager *TxManager) (*CascadeAuditor, error) {
	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}

	return &CascadeAuditor{
		txManager:         txManager,
		encoder:           encoder,
		compressThreshold: 10 * 1024, // user cascades can list thousands of rows
	}, nil
}

// RecordCascade writes the audit row inside the deleting transaction.
func (a *CascadeAuditor) RecordCascade(ctx context.Context, plan *cascade.Plan, deletedAt time.Time) error {
	payload, err := json.Marshal(serializePlan(plan))
	if err != nil {
		return fmt.Errorf("marshal cascade plan: %w", err)
	}

	entry := CascadeAuditEntry{
		ID:              id.New(),
		RootKind:        string(plan.RootKind),
		RootID:          plan.RootID,
		ActorID:         appctx.GetUserID(ctx),
		RowCount:        plan.Size(),
		CompressionAlgo: CompressionNone,
		DeletedAt:       deletedAt,
		CreatedAt:       time.Now().UTC(),
	}

	if len(payload) > a.compressThreshold {
		entry.PlanCompressed = a.encoder.EncodeAll(payload, nil)
		entry.CompressionAlgo = CompressionZstd
	} else {
		entry.Plan = payload
	}

	var actorID *string
	if entry.ActorID != "" {
		actorID = &entry.ActorID
	}

	querier := a.txManager.GetQuerier(ctx)
	_, err = querier.Exec(ctx, `
		INSERT INTO sys_audit_log (id, root_kind, root_id, actor_id, row_count,
			plan, plan_compressed, compression_algo, deleted_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, entry.ID, entry.RootKind, entry.RootID, actorID, entry.RowCount,
		entry.Plan, entry.PlanCompressed, entry.CompressionAlgo, entry.DeletedAt, entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert cascade audit entry: %w", err)
	}

	return nil
}

func serializePlan(plan *cascade.Plan) auditPlan {
	out := auditPlan{}
	for _, u := range plan.Users {
		out.Users = append(out.Users, u.String())
	}
	for _, p := range plan.Posts {
		out.Posts = append(out.Posts, p.String())
	}
	for _, c := range plan.Comments {
		out.Comments = append(out.Comments, c.ID.String())
	}
	for _, att := range plan.Attachments {
		out.Attachments = append(out.Attachments, att.ID.String())
	}
	return out
}
