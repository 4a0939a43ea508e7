package courier

import (
	"fmt"
	"log/slog"
	"mime/multipart"
	"net/textproto"
	"reflect"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
)

// FieldKind is the broad category of an uploaded payload, used as the major
// part of the generated MIME type.
type FieldKind string

const (
	KindFile  FieldKind = "file"
	KindImage FieldKind = "image"
	KindVideo FieldKind = "video"
)

// FileExt is a known file extension, without the leading dot.
type FileExt string

const (
	ExtPNG  FileExt = "png"
	ExtJPG  FileExt = "jpg"
	ExtJPEG FileExt = "jpeg"
	ExtMP4  FileExt = "mp4"
	ExtMP3  FileExt = "mp3"
	ExtMKV  FileExt = "mkv"
	ExtTXT  FileExt = "txt"
)

// FormFile is one file payload for a multipart request.
type FormFile struct {
	Kind FieldKind
	Ext  FileExt
	Data []byte
}

// ContentType derives the MIME type as "<kind>/<ext>".
func (f FormFile) ContentType() string {
	return string(f.Kind) + "/" + string(f.Ext)
}

// filename generates a fresh collision-free name for the uploaded part.
func (f FormFile) filename() string {
	return uuid.NewString() + "." + string(f.Ext)
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}

// WriteMultipartBody encodes the file fields and the descriptor's effective
// parameter set into w. Each file is written under its field name with a
// synthetic unique filename and a MIME type derived from its kind and
// extension. Parameters follow the files: slice values are appended once per
// element under "key[]", scalars are stringified under the bare key. Fields
// are written in sorted key order so the encoded body is deterministic.
//
// A scalar whose string form is not valid UTF-8 is skipped rather than
// failing the whole body; the skip is logged at debug level.
func WriteMultipartBody(w *multipart.Writer, d *Descriptor, files map[string]FormFile) error {
	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		f := files[name]
		h := textproto.MIMEHeader{}
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
			escapeQuotes(name), escapeQuotes(f.filename())))
		h.Set("Content-Type", f.ContentType())
		part, err := w.CreatePart(h)
		if err != nil {
			return fmt.Errorf("failed to create form file %s: %w", name, err)
		}
		if _, err := part.Write(f.Data); err != nil {
			return fmt.Errorf("failed to write file content %s: %w", name, err)
		}
	}

	params := d.EffectiveParams()
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		elems, isSlice := sliceElements(params[key])
		if isSlice {
			for _, elem := range elems {
				if err := writeParamField(w, key+"[]", elem); err != nil {
					return err
				}
			}
			continue
		}
		if err := writeParamField(w, key, params[key]); err != nil {
			return err
		}
	}

	return nil
}

func writeParamField(w *multipart.Writer, key string, value any) error {
	s, ok := stringifyParam(value)
	if !ok {
		slog.Debug("skipping multipart parameter with non-UTF8 value", "key", key)
		return nil
	}
	if err := w.WriteField(key, s); err != nil {
		return fmt.Errorf("failed to write field %s: %w", key, err)
	}
	return nil
}

// sliceElements returns the elements of v when it is a slice or array.
// Byte slices are treated as scalars, not element lists.
func sliceElements(v any) ([]any, bool) {
	if v == nil {
		return nil, false
	}
	if _, isBytes := v.([]byte); isBytes {
		return nil, false
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	elems := make([]any, rv.Len())
	for i := range elems {
		elems[i] = rv.Index(i).Interface()
	}
	return elems, true
}

// stringifyParam renders a scalar parameter value for wire encoding. The
// second result is false when the rendering is not valid UTF-8, in which case
// the value must be skipped.
func stringifyParam(v any) (string, bool) {
	var s string
	switch val := v.(type) {
	case string:
		s = val
	case []byte:
		s = string(val)
	case fmt.Stringer:
		s = val.String()
	default:
		s = fmt.Sprint(val)
	}
	if !utf8.ValidString(s) {
		return "", false
	}
	return s, true
}
