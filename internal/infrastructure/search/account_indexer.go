// Package search mirrors public account fields into Elasticsearch.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"github.com/oksasatya/go-account-service/internal/application"
)

// AccountIndexer keeps one document per account. Only name, email and
// timestamps are indexed.
type AccountIndexer struct {
	ES      *elasticsearch.Client
	Index   string
	Timeout time.Duration
}

func NewAccountIndexer(es *elasticsearch.Client, index string) *AccountIndexer {
	return &AccountIndexer{ES: es, Index: index, Timeout: 3 * time.Second}
}

type accountDoc struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	CreatedAt string `json:"created_at,omitempty"`
	UpdatedAt string `json:"updated_at"`
}

func (ix *AccountIndexer) Publish(ctx context.Context, ev application.AccountEvent) error {
	if ix.ES == nil || ix.Index == "" {
		return nil
	}
	doc := accountDoc{
		ID:        ev.AccountID,
		Name:      ev.Name,
		Email:     ev.Email,
		UpdatedAt: ev.OccurredAt.Format(time.RFC3339Nano),
	}
	if ev.Type == application.EventAccountCreated {
		doc.CreatedAt = doc.UpdatedAt
	}
	// partial update so created_at survives later updates
	b, err := json.Marshal(map[string]any{"doc": doc, "doc_as_upsert": true})
	if err != nil {
		return err
	}
	req := esapi.UpdateRequest{Index: ix.Index, DocumentID: ev.AccountID, Body: bytes.NewReader(b)}

	c, cancel := context.WithTimeout(ctx, ix.Timeout)
	defer cancel()
	res, err := req.Do(c, ix.ES)
	if err != nil {
		return err
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() {
		return fmt.Errorf("index account %s: %s", ev.AccountID, res.Status())
	}
	return nil
}
