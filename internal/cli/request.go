package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/courierapi/courier"
	"github.com/courierapi/courier/internal/credstore"
	"github.com/courierapi/courier/internal/outfmt"
)

// anyShape decodes both success and backend-error bodies for ad hoc calls,
// where no declared shape exists.
type anyShape = map[string]any

func newRequestCmd() *cobra.Command {
	var (
		queryPairs  []string
		bodyPairs   []string
		headerPairs []string
	)

	cmd := &cobra.Command{
		Use:   "request METHOD URL",
		Short: "Issue a single API request and print the decoded response",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			desc, err := buildDescriptor(strings.ToUpper(args[0]), args[1], queryPairs, bodyPairs, headerPairs)
			if err != nil {
				return err
			}

			dp := newDispatcher()
			defer dp.Close()

			result, err := courier.Do[anyShape, anyShape](cmd.Context(), dp, courier.Fixed[anyShape, anyShape]{Desc: desc})
			if err != nil {
				if be, ok := courier.AsBackendError[anyShape](err); ok {
					// Surface the server-authored payload before failing.
					_ = writeResult(cmd, be.Payload)
				}
				return err
			}

			return writeResult(cmd, result)
		},
	}

	cmd.Flags().StringArrayVarP(&queryPairs, "query", "q", nil, "query parameter key=value (repeatable)")
	cmd.Flags().StringArrayVarP(&bodyPairs, "body", "d", nil, "body parameter key=value (repeatable)")
	cmd.Flags().StringArrayVarP(&headerPairs, "header", "H", nil, "header name:value (repeatable)")

	return cmd
}

// buildDescriptor assembles a descriptor from command-line pieces and attaches
// the stored token for the host unless --no-auth or an explicit Authorization
// header overrides it.
func buildDescriptor(method, rawURL string, queryPairs, bodyPairs, headerPairs []string) (*courier.Descriptor, error) {
	query, err := parseParams(queryPairs)
	if err != nil {
		return nil, err
	}
	body, err := parseParams(bodyPairs)
	if err != nil {
		return nil, err
	}
	headers, err := parseHeaders(headerPairs)
	if err != nil {
		return nil, err
	}

	desc := courier.NewDescriptor(method, rawURL, "")
	desc.MergeQuery(query)
	if len(bodyPairs) > 0 {
		desc.MergeBody(body)
	}
	desc.MergeHeaders(headers)

	if !flags.NoAuth {
		if _, set := desc.Headers["Authorization"]; !set {
			token, err := credstore.LoadToken(hostOf(rawURL))
			if err == nil && token != "" {
				desc.MergeHeaders(courier.Headers{"Authorization": "Bearer " + token})
			} else if err != nil && !errors.Is(err, credstore.ErrNotFound) {
				return nil, fmt.Errorf("failed to load stored token: %w", err)
			}
		}
	}

	return desc, nil
}

func writeResult(cmd *cobra.Command, data any) error {
	filtered, err := outfmt.ApplyQuery(data, flags.JQ)
	if err != nil {
		return err
	}
	return outfmt.WriteJSON(cmd.OutOrStdout(), filtered, flags.Compact)
}
