// Package persist saves and loads analysis snapshots through pluggable codecs.
package persist

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/pierrec/lz4/v4"
	"gopkg.in/yaml.v3"
)

// File extensions for supported codecs.
const (
	jsonExtension = ".json"
	yamlExtension = ".yaml"
	ymlExtension  = ".yml"
	gobExtension  = ".gob"
	lz4Extension  = ".lz4"
)

// Codec names accepted by CodecByName.
const (
	CodecJSON = "json"
	CodecYAML = "yaml"
	CodecGob  = "gob"
	CodecLZ4  = "lz4"
)

const (
	defaultIndent = "  "
	yamlIndent    = 2

	// LZ4 frames: uint32 uncompressed length, one frame-type byte, payload.
	lengthPrefixSize = 4
	headerSize       = lengthPrefixSize + 1
	frameStored      = 0
	frameCompressed  = 1

	// An LZ4 block expands at most 255x; the slack covers the final literals.
	maxBlockExpansion = 255
	blockSlack        = 16
)

// Sentinel errors.
var (
	ErrUnknownCodec = errors.New("unknown codec")
	ErrCorruptLZ4   = errors.New("corrupt lz4 payload")
)

// Codec defines how state is serialized and deserialized.
type Codec interface {
	// Encode writes the state to the writer.
	Encode(w io.Writer, state any) error
	// Decode reads the state from the reader.
	Decode(r io.Reader, state any) error
	// Extension returns the file extension for this codec (e.g., ".json", ".gob").
	Extension() string
}

// JSONCodec implements Codec using JSON encoding with optional indentation.
type JSONCodec struct {
	// Indent specifies the indentation string. Empty string means compact JSON.
	Indent string
}

// NewJSONCodec creates a JSON codec with pretty-printing (2-space indent).
func NewJSONCodec() *JSONCodec {
	return &JSONCodec{Indent: defaultIndent}
}

// Encode implements Codec.Encode using JSON encoding.
func (c *JSONCodec) Encode(w io.Writer, state any) error {
	encoder := json.NewEncoder(w)
	if c.Indent != "" {
		encoder.SetIndent("", c.Indent)
	}

	if err := encoder.Encode(state); err != nil {
		return fmt.Errorf("json encode: %w", err)
	}

	return nil
}

// Decode implements Codec.Decode using JSON decoding.
func (c *JSONCodec) Decode(r io.Reader, state any) error {
	if err := json.NewDecoder(r).Decode(state); err != nil {
		return fmt.Errorf("json decode: %w", err)
	}

	return nil
}

// Extension implements Codec.Extension for JSON files.
func (c *JSONCodec) Extension() string {
	return jsonExtension
}

// YAMLCodec implements Codec using YAML.
type YAMLCodec struct{}

// NewYAMLCodec creates a YAML codec.
func NewYAMLCodec() *YAMLCodec {
	return &YAMLCodec{}
}

// Encode implements Codec.Encode using YAML encoding.
func (c *YAMLCodec) Encode(w io.Writer, state any) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(yamlIndent)

	if err := encoder.Encode(state); err != nil {
		return fmt.Errorf("yaml encode: %w", err)
	}

	if err := encoder.Close(); err != nil {
		return fmt.Errorf("yaml encode: %w", err)
	}

	return nil
}

// Decode implements Codec.Decode using YAML decoding.
func (c *YAMLCodec) Decode(r io.Reader, state any) error {
	if err := yaml.NewDecoder(r).Decode(state); err != nil {
		return fmt.Errorf("yaml decode: %w", err)
	}

	return nil
}

// Extension implements Codec.Extension for YAML files.
func (c *YAMLCodec) Extension() string {
	return yamlExtension
}

// GobCodec implements Codec using gob encoding.
type GobCodec struct{}

// NewGobCodec creates a gob codec.
func NewGobCodec() *GobCodec {
	return &GobCodec{}
}

// Encode implements Codec.Encode using gob encoding.
func (c *GobCodec) Encode(w io.Writer, state any) error {
	if err := gob.NewEncoder(w).Encode(state); err != nil {
		return fmt.Errorf("gob encode: %w", err)
	}

	return nil
}

// Decode implements Codec.Decode using gob decoding.
func (c *GobCodec) Decode(r io.Reader, state any) error {
	if err := gob.NewDecoder(r).Decode(state); err != nil {
		return fmt.Errorf("gob decode: %w", err)
	}

	return nil
}

// Extension implements Codec.Extension for gob files.
func (c *GobCodec) Extension() string {
	return gobExtension
}

// LZ4Codec compresses the output of an inner codec as a single LZ4 block.
type LZ4Codec struct {
	Inner Codec
}

// NewLZ4Codec creates an LZ4 codec over compact JSON.
func NewLZ4Codec() *LZ4Codec {
	return &LZ4Codec{Inner: &JSONCodec{}}
}

// Encode implements Codec.Encode.
func (c *LZ4Codec) Encode(w io.Writer, state any) error {
	var raw bytes.Buffer

	if err := c.Inner.Encode(&raw, state); err != nil {
		return err
	}

	frame := make([]byte, headerSize+lz4.CompressBlockBound(raw.Len()))
	binary.LittleEndian.PutUint32(frame, uint32(raw.Len())) //nolint:gosec // snapshots stay far below 4 GiB.

	written, err := lz4.CompressBlock(raw.Bytes(), frame[headerSize:], nil)
	if err != nil {
		return fmt.Errorf("lz4 compress: %w", err)
	}

	// Zero means incompressible; store the payload as is.
	if written == 0 {
		frame[lengthPrefixSize] = frameStored
		written = copy(frame[headerSize:], raw.Bytes())
	} else {
		frame[lengthPrefixSize] = frameCompressed
	}

	if _, err = w.Write(frame[:headerSize+written]); err != nil {
		return fmt.Errorf("lz4 write: %w", err)
	}

	return nil
}

// Decode implements Codec.Decode.
func (c *LZ4Codec) Decode(r io.Reader, state any) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("lz4 read: %w", err)
	}

	if len(data) < headerSize {
		return ErrCorruptLZ4
	}

	size := int(binary.LittleEndian.Uint32(data))
	payload := data[headerSize:]

	switch data[lengthPrefixSize] {
	case frameStored:
		if len(payload) != size {
			return fmt.Errorf("%w: expected %d bytes, got %d", ErrCorruptLZ4, size, len(payload))
		}
	case frameCompressed:
		if limit := maxBlockExpansion*len(payload) + blockSlack; size > limit {
			return fmt.Errorf("%w: declared %d bytes exceeds %d", ErrCorruptLZ4, size, limit)
		}

		decompressed := make([]byte, size)

		n, err := lz4.UncompressBlock(payload, decompressed)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrCorruptLZ4, err)
		}

		if n != size {
			return fmt.Errorf("%w: expected %d bytes, got %d", ErrCorruptLZ4, size, n)
		}

		payload = decompressed
	default:
		return fmt.Errorf("%w: unknown frame type %d", ErrCorruptLZ4, data[lengthPrefixSize])
	}

	return c.Inner.Decode(bytes.NewReader(payload), state)
}

// Extension implements Codec.Extension.
func (c *LZ4Codec) Extension() string {
	return c.Inner.Extension() + lz4Extension
}

// CodecByName returns the codec registered under name.
func CodecByName(name string) (Codec, error) {
	switch strings.ToLower(name) {
	case CodecJSON, "":
		return NewJSONCodec(), nil
	case CodecYAML, "yml":
		return NewYAMLCodec(), nil
	case CodecGob:
		return NewGobCodec(), nil
	case CodecLZ4:
		return NewLZ4Codec(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownCodec, name)
	}
}

// CodecForPath picks a codec from the file extension.
func CodecForPath(path string) (Codec, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case jsonExtension:
		return NewJSONCodec(), nil
	case yamlExtension, ymlExtension:
		return NewYAMLCodec(), nil
	case gobExtension:
		return NewGobCodec(), nil
	case lz4Extension:
		return NewLZ4Codec(), nil
	default:
		return nil, fmt.Errorf("%w: no codec for %q", ErrUnknownCodec, filepath.Base(path))
	}
}
