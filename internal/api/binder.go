package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/go-viper/mapstructure/v2"
)

// maxBodyBytes bounds JSON and urlencoded request bodies.
const maxBodyBytes = 4 << 20

var (
	// errEmptyBody is returned when a mutation carries no attributes.
	errEmptyBody = errors.New("no attributes were posted")
	errBadInput  = errors.New("the posted data could not be read")
)

// bind decodes the posted attributes of model into dst. JSON bodies may hold
// the attributes at the top level or nested under the model name; form posts
// use Model[attribute] keys, with Model[list][0][attr] for nested rows.
func bind(r *http.Request, model string, dst any) error {
	attrs, err := attributes(r, model)
	if err != nil {
		return err
	}
	if len(attrs) == 0 {
		return errEmptyBody
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           dst,
		TagName:          "mapstructure",
		WeaklyTypedInput: true,
		DecodeHook:       mapstructure.ComposeDecodeHookFunc(yesNoHook, singleToSliceHook),
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(attrs); err != nil {
		return fmt.Errorf("%w: %s: %v", errBadInput, model, err)
	}
	return nil
}

func attributes(r *http.Request, model string) (map[string]any, error) {
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		var body map[string]any
		if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&body); err != nil {
			if err == io.EOF {
				return nil, nil
			}
			return nil, fmt.Errorf("%w: %v", errBadInput, err)
		}
		if nested, ok := body[model].(map[string]any); ok {
			return nested, nil
		}
		return body, nil
	}

	if err := r.ParseMultipartForm(maxBodyBytes); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		return nil, fmt.Errorf("%w: %v", errBadInput, err)
	}
	return formAttributes(r.PostForm, model), nil
}

// formAttributes builds a nested map from Model[a][b] keys. Plain keys are
// used when no key carries the model prefix.
func formAttributes(form map[string][]string, model string) map[string]any {
	root := make(map[string]any)
	prefixed := false
	for key := range form {
		if strings.HasPrefix(key, model+"[") {
			prefixed = true
			break
		}
	}
	for key, values := range form {
		var path []string
		if prefixed {
			if !strings.HasPrefix(key, model+"[") {
				continue
			}
			path = splitKey(strings.TrimPrefix(key, model))
		} else {
			path = splitKey(key)
		}
		if len(path) == 0 {
			continue
		}
		var value any = values[0]
		if strings.HasSuffix(key, "[]") || len(values) > 1 {
			value = values
		}
		setPath(root, path, value)
	}
	return listify(root).(map[string]any)
}

// splitKey turns "name", "[name]" or "[rows][0][tag]" into its segments.
func splitKey(key string) []string {
	key = strings.TrimSuffix(key, "[]")
	var out []string
	if i := strings.IndexByte(key, '['); i > 0 {
		out = append(out, key[:i])
		key = key[i:]
	} else if i < 0 {
		return []string{key}
	}
	for _, part := range strings.Split(key, "[") {
		part = strings.TrimSuffix(part, "]")
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

func setPath(m map[string]any, path []string, value any) {
	for _, p := range path[:len(path)-1] {
		next, ok := m[p].(map[string]any)
		if !ok {
			next = make(map[string]any)
			m[p] = next
		}
		m = next
	}
	m[path[len(path)-1]] = value
}

// listify converts maps whose keys are all indexes into slices in index order.
func listify(v any) any {
	m, ok := v.(map[string]any)
	if !ok {
		return v
	}
	indexes := make([]int, 0, len(m))
	for k, child := range m {
		m[k] = listify(child)
		if n, err := strconv.Atoi(k); err == nil && n >= 0 {
			indexes = append(indexes, n)
		}
	}
	if len(indexes) == 0 || len(indexes) != len(m) {
		return m
	}
	sort.Ints(indexes)
	out := make([]any, 0, len(indexes))
	for _, n := range indexes {
		out = append(out, m[strconv.Itoa(n)])
	}
	return out
}

// yesNoHook accepts the yes/no strings forms use for flags.
func yesNoHook(from, to reflect.Type, data any) (any, error) {
	if from.Kind() != reflect.String || to.Kind() != reflect.Bool {
		return data, nil
	}
	switch strings.ToLower(strings.TrimSpace(data.(string))) {
	case "yes", "on":
		return true, nil
	case "no", "off", "":
		return false, nil
	}
	return data, nil
}

// singleToSliceHook lets a lone form value fill a slice field.
func singleToSliceHook(from, to reflect.Type, data any) (any, error) {
	if from.Kind() == reflect.String && to.Kind() == reflect.Slice {
		if s := data.(string); s != "" {
			return []string{s}, nil
		}
		return []string{}, nil
	}
	return data, nil
}

// bulkRequest is the payload of a bulk-action endpoint. The action may be
// posted as bulk_action or action.
type bulkRequest struct {
	Action string   `mapstructure:"bulk_action"`
	Items  []string `mapstructure:"items"`
}

func bindBulk(r *http.Request) (bulkRequest, error) {
	var req bulkRequest
	attrs, err := attributes(r, "")
	if err != nil {
		return req, err
	}
	if v, ok := attrs["action"]; ok {
		if _, set := attrs["bulk_action"]; !set {
			attrs["bulk_action"] = v
		}
	}
	if err := mapstructure.WeakDecode(attrs, &req); err != nil {
		return req, fmt.Errorf("%w: %v", errBadInput, err)
	}
	return req, nil
}
