package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/courierapi/courier"
)

const defaultBatchConcurrency = 4

// batchSpec is one request entry in a batch file.
type batchSpec struct {
	Method  string          `json:"method"`
	URL     string          `json:"url"`
	Query   courier.Params  `json:"query,omitempty"`
	Body    courier.Params  `json:"body,omitempty"`
	Headers courier.Headers `json:"headers,omitempty"`
}

// batchResult pairs a request's position in the batch with its classified
// outcome.
type batchResult struct {
	Index   int      `json:"index"`
	Method  string   `json:"method"`
	URL     string   `json:"url"`
	Outcome string   `json:"outcome"` // "success", "backend_error", or "transport_error"
	Value   anyShape `json:"value,omitempty"`
	Backend anyShape `json:"backend,omitempty"`
	Error   string   `json:"error,omitempty"`
}

func newBatchCmd() *cobra.Command {
	var concurrency int64

	cmd := &cobra.Command{
		Use:   "batch FILE",
		Short: "Issue a file of requests concurrently and print every outcome",
		Long: `Reads a JSON array of request specs and dispatches them with bounded
concurrency. Requests race independently; results are reported in input
order with each one's classified outcome.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			specs, err := loadBatchFile(args[0])
			if err != nil {
				return err
			}
			if concurrency <= 0 {
				concurrency = defaultBatchConcurrency
			}

			dp := newDispatcher()
			defer dp.Close()

			results := make([]batchResult, len(specs))
			sem := semaphore.NewWeighted(concurrency)
			g, ctx := errgroup.WithContext(cmd.Context())

			for i, spec := range specs {
				i, spec := i, spec
				g.Go(func() error {
					if err := sem.Acquire(ctx, 1); err != nil {
						return nil // context cancelled
					}
					defer sem.Release(1)

					desc := courier.NewDescriptor(strings.ToUpper(spec.Method), spec.URL, "")
					desc.MergeQuery(spec.Query)
					if spec.Body != nil {
						desc.MergeBody(spec.Body)
					}
					desc.MergeHeaders(spec.Headers)

					result := batchResult{Index: i, Method: desc.Method, URL: spec.URL}
					value, err := courier.Do[anyShape, anyShape](ctx, dp, courier.Fixed[anyShape, anyShape]{Desc: desc})
					switch {
					case err == nil:
						result.Outcome = courier.OutcomeSuccess.String()
						result.Value = value
					default:
						if be, ok := courier.AsBackendError[anyShape](err); ok {
							result.Outcome = courier.OutcomeBackendError.String()
							result.Backend = be.Payload
						} else {
							result.Outcome = courier.OutcomeTransportError.String()
						}
						result.Error = err.Error()
					}
					results[i] = result
					return nil
				})
			}

			if err := g.Wait(); err != nil {
				return err
			}
			return writeResult(cmd, results)
		},
	}

	cmd.Flags().Int64VarP(&concurrency, "concurrency", "c", defaultBatchConcurrency, "maximum in-flight requests")

	return cmd
}

func loadBatchFile(path string) ([]batchSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read batch file: %w", err)
	}
	var specs []batchSpec
	if err := json.Unmarshal(data, &specs); err != nil {
		return nil, fmt.Errorf("invalid batch file %s: %w", path, err)
	}
	for i, spec := range specs {
		if spec.Method == "" || spec.URL == "" {
			return nil, fmt.Errorf("batch entry %d: method and url are required", i)
		}
	}
	return specs, nil
}
