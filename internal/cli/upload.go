package cli

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/courierapi/courier"
)

// kindForExt maps known extensions to the payload kind used in the generated
// MIME type.
var kindForExt = map[courier.FileExt]courier.FieldKind{
	courier.ExtPNG:  courier.KindImage,
	courier.ExtJPG:  courier.KindImage,
	courier.ExtJPEG: courier.KindImage,
	courier.ExtMP4:  courier.KindVideo,
	courier.ExtMKV:  courier.KindVideo,
	courier.ExtMP3:  courier.KindFile,
	courier.ExtTXT:  courier.KindFile,
}

func newUploadCmd() *cobra.Command {
	var (
		filePairs   []string
		paramPairs  []string
		headerPairs []string
		method      string
	)

	cmd := &cobra.Command{
		Use:   "upload URL",
		Short: "Issue a multipart request with file fields and parameters",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(filePairs) == 0 {
				return fmt.Errorf("at least one --file field=path is required")
			}

			files, err := loadFormFiles(filePairs)
			if err != nil {
				return err
			}

			desc, err := buildDescriptor(strings.ToUpper(method), args[0], paramPairs, nil, headerPairs)
			if err != nil {
				return err
			}

			dp := newDispatcher()
			defer dp.Close()

			result, err := courier.DoMultipart[anyShape, anyShape](cmd.Context(), dp, courier.Fixed[anyShape, anyShape]{Desc: desc}, files)
			if err != nil {
				if be, ok := courier.AsBackendError[anyShape](err); ok {
					_ = writeResult(cmd, be.Payload)
				}
				return err
			}

			return writeResult(cmd, result)
		},
	}

	cmd.Flags().StringArrayVarP(&filePairs, "file", "f", nil, "file field field=path (repeatable)")
	cmd.Flags().StringArrayVarP(&paramPairs, "param", "p", nil, "form parameter key=value (repeatable)")
	cmd.Flags().StringArrayVarP(&headerPairs, "header", "H", nil, "header name:value (repeatable)")
	cmd.Flags().StringVarP(&method, "method", "X", http.MethodPost, "HTTP method")

	return cmd
}

// loadFormFiles reads each field=path pair from disk, deriving the payload
// kind from the file extension.
func loadFormFiles(pairs []string) (map[string]courier.FormFile, error) {
	files := make(map[string]courier.FormFile, len(pairs))
	for _, pair := range pairs {
		field, path, ok := strings.Cut(pair, "=")
		if !ok || field == "" || path == "" {
			return nil, fmt.Errorf("invalid file %q: expected field=path", pair)
		}

		ext := courier.FileExt(strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), "."))
		kind, known := kindForExt[ext]
		if !known {
			return nil, fmt.Errorf("unsupported file extension %q for %s (supported: png, jpg, jpeg, mp4, mp3, mkv, txt)", ext, path)
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}

		files[field] = courier.FormFile{Kind: kind, Ext: ext, Data: data}
	}
	return files, nil
}
