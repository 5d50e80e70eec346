package persist

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/sieverett/Python-Import-Analyzer/pkg/analysis"
)

// ErrInvalidSnapshot marks a JSON snapshot that does not match the result schema.
var ErrInvalidSnapshot = errors.New("snapshot does not match schema")

//go:generate go run ../../tools/schemagen -o .
//go:embed result.schema.json
var resultSchema []byte

// SaveResult writes r to path with codec. A nil codec is chosen from the extension.
func SaveResult(path string, codec Codec, r *analysis.Result) error {
	if codec == nil {
		var err error

		codec, err = CodecForPath(path)
		if err != nil {
			return err
		}
	}

	return NewPersister[analysis.Result](codec).Save(path, r)
}

// LoadResult reads a snapshot, picking the codec from the extension.
// JSON snapshots are validated against the result schema before decoding.
func LoadResult(path string) (*analysis.Result, error) {
	codec, err := CodecForPath(path)
	if err != nil {
		return nil, err
	}

	if _, isJSON := codec.(*JSONCodec); isJSON {
		data, readErr := os.ReadFile(path)
		if readErr != nil {
			return nil, fmt.Errorf("open state file: %w", readErr)
		}

		if err = Validate(data); err != nil {
			return nil, err
		}

		var result analysis.Result

		if err = codec.Decode(bytes.NewReader(data), &result); err != nil {
			return nil, fmt.Errorf("decode state: %w", err)
		}

		return &result, nil
	}

	return NewPersister[analysis.Result](codec).Load(path)
}

// Validate checks a JSON document against the result schema.
func Validate(data []byte) error {
	result, err := gojsonschema.Validate(
		gojsonschema.NewBytesLoader(resultSchema),
		gojsonschema.NewBytesLoader(data),
	)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidSnapshot, err)
	}

	if result.Valid() {
		return nil
	}

	problems := make([]string, 0, len(result.Errors()))
	for _, verr := range result.Errors() {
		problems = append(problems, verr.Field()+": "+verr.Description())
	}

	return fmt.Errorf("%w: %s", ErrInvalidSnapshot, strings.Join(problems, "; "))
}
