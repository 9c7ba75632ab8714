package repositories

import (
	"companion-hub/contract"
	"companion-hub/domain"
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/blugelabs/bluge"
)

const (
	contentField = "content"
	senderField  = "sender"
	idField      = "_id"
)

var _ contract.IMessageIndex = (*SearchIndex)(nil)

// SearchIndex is a full-text index of chat messages keyed by sequence number.
type SearchIndex struct {
	writer *bluge.Writer
	log    *slog.Logger
}

// NewInMemorySearchIndex opens an index that lives and dies with the process.
func NewInMemorySearchIndex(log *slog.Logger) (*SearchIndex, error) {
	writer, err := bluge.OpenWriter(bluge.InMemoryOnlyConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to open bluge writer: %w", err)
	}
	return &SearchIndex{writer: writer, log: log}, nil
}

func (s *SearchIndex) Index(msg domain.Message) error {
	doc := toDocument(msg)
	return s.writer.Update(doc.ID(), doc)
}

// IndexAll is used on warm start, in a single batch.
func (s *SearchIndex) IndexAll(messages []domain.Message) error {
	batch := bluge.NewBatch()
	for _, msg := range messages {
		doc := toDocument(msg)
		batch.Update(doc.ID(), doc)
	}
	return s.writer.Batch(batch)
}

// Search runs a match query on message content and returns sequence numbers by relevance.
func (s *SearchIndex) Search(ctx context.Context, query string, limit int) ([]uint64, error) {
	reader, err := s.writer.Reader()
	if err != nil {
		return nil, err
	}
	defer func() { _ = reader.Close() }()

	request := bluge.NewTopNSearch(limit, bluge.NewMatchQuery(query).SetField(contentField))
	matches, err := reader.Search(ctx, request)
	if err != nil {
		return nil, err
	}

	var seqs []uint64
	match, err := matches.Next()
	for err == nil && match != nil {
		var (
			seq      uint64
			parseErr error
		)
		if err = match.VisitStoredFields(func(field string, value []byte) bool {
			if field == idField {
				seq, parseErr = strconv.ParseUint(string(value), 10, 64)
				return false
			}
			return true
		}); err != nil {
			return nil, err
		}
		if parseErr != nil {
			return nil, parseErr
		}
		seqs = append(seqs, seq)
		match, err = matches.Next()
	}
	if err != nil {
		return nil, err
	}
	return seqs, nil
}

func toDocument(msg domain.Message) *bluge.Document {
	return bluge.NewDocument(strconv.FormatUint(msg.Seq, 10)).
		AddField(bluge.NewTextField(contentField, msg.Content)).
		AddField(bluge.NewKeywordField(senderField, msg.Sender).StoreValue())
}

func (s *SearchIndex) Close() error {
	return s.writer.Close()
}
