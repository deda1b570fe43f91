package storage

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/ignatij/logreport/internal/config"
	"github.com/ignatij/logreport/internal/log"
	"github.com/ignatij/logreport/pkg/models"
	"github.com/ignatij/logreport/pkg/storage"
	"github.com/pkg/errors"
	"github.com/valyala/fastjson"
)

// ElasticStore reads API-call logs from an Elasticsearch index.
type ElasticStore struct {
	es      *elasticsearch.Client
	cfg     config.Elastic
	parsers fastjson.ParserPool
	schema  *sourceSchema
}

var _ storage.LogStore = (*ElasticStore)(nil)

func NewElasticStore(cfg config.Elastic) (*ElasticStore, error) {
	esCfg := elasticsearch.Config{
		Addresses: []string{cfg.URL},
		Username:  cfg.Username,
		Password:  cfg.Password,
	}
	if cfg.InsecureSkipVerify {
		esCfg.Transport = &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true}, //nolint:gosec // opt-in via config
		}
	}
	es, err := elasticsearch.NewClient(esCfg)
	if err != nil {
		return nil, errors.Wrap(err, "create elasticsearch client")
	}
	schema, err := newSourceSchema()
	if err != nil {
		return nil, err
	}
	return &ElasticStore{es: es, cfg: cfg, schema: schema}, nil
}

func (s *ElasticStore) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.cfg.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.cfg.Timeout)
}

// TestConnection pings the cluster.
func (s *ElasticStore) TestConnection(ctx context.Context) string {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	res, err := s.es.Ping(s.es.Ping.WithContext(ctx))
	if err != nil {
		log.GetLogger().Warnf("Elasticsearch ping failed: %v", err)
		return fmt.Sprintf("Failed to connect: %v", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		log.GetLogger().Warnf("Elasticsearch ping returned %s", res.Status())
		return fmt.Sprintf("Failed to connect: %s", res.Status())
	}
	return "Connected to Elasticsearch!"
}

// FetchRecent returns up to limit documents of the configured index, in the
// order the cluster returns them.
func (s *ElasticStore) FetchRecent(ctx context.Context, limit int) ([]models.LogRecord, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	res, err := s.es.Search(
		s.es.Search.WithContext(ctx),
		s.es.Search.WithIndex(s.cfg.Index),
		s.es.Search.WithSize(storage.ClampLimit(limit)),
		s.es.Search.WithSourceIncludes(models.SourceFields...),
	)
	if err != nil {
		return nil, &storage.RetrievalError{Message: err.Error(), Err: err}
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, &storage.RetrievalError{Message: "read response: " + err.Error(), Err: err}
	}
	if res.IsError() {
		return nil, &storage.RetrievalError{Message: s.errorReason(res.Status(), body)}
	}
	return s.decodeHits(body)
}

// errorReason extracts error.reason from an error response body.
func (s *ElasticStore) errorReason(status string, body []byte) string {
	p := s.parsers.Get()
	defer s.parsers.Put(p)

	v, err := p.ParseBytes(body)
	if err != nil {
		return status
	}
	if reason := v.GetStringBytes("error", "reason"); len(reason) > 0 {
		return fmt.Sprintf("%s: %s", status, reason)
	}
	if msg := v.GetStringBytes("error"); len(msg) > 0 {
		return fmt.Sprintf("%s: %s", status, msg)
	}
	return status
}

func (s *ElasticStore) decodeHits(body []byte) ([]models.LogRecord, error) {
	p := s.parsers.Get()
	defer s.parsers.Put(p)

	v, err := p.ParseBytes(body)
	if err != nil {
		return nil, &storage.RetrievalError{Message: "decode search response: " + err.Error(), Err: err}
	}

	hits := v.GetArray("hits", "hits")
	records := make([]models.LogRecord, 0, len(hits))
	for i, hit := range hits {
		id := string(hit.GetStringBytes("_id"))
		if id == "" {
			log.GetLogger().Warnf("Skipping hit %d without _id", i)
			continue
		}
		src := hit.Get("_source")
		if err := s.schema.validate(src); err != nil {
			log.GetLogger().Warnf("Skipping log %s: %v", id, err)
			continue
		}
		records = append(records, models.LogRecord{
			ID:           id,
			APIName:      scalar(src, models.FieldAPIName),
			Status:       scalar(src, models.FieldStatus),
			ResponseTime: scalar(src, models.FieldResponseTime),
			Error:        scalar(src, models.FieldError),
			Timestamp:    scalar(src, models.FieldTimestamp),
		})
	}
	log.GetLogger().Debugf("Fetched %d logs from index %s", len(records), s.cfg.Index)
	return records, nil
}

// scalar returns the field as text; nil when absent or null. Strings are
// unquoted, numbers and booleans keep their JSON spelling.
func scalar(src *fastjson.Value, field string) *string {
	if src == nil {
		return nil
	}
	v := src.Get(field)
	if v == nil || v.Type() == fastjson.TypeNull {
		return nil
	}
	var s string
	if v.Type() == fastjson.TypeString {
		b, _ := v.StringBytes()
		s = string(b)
	} else {
		s = v.String()
	}
	return &s
}
