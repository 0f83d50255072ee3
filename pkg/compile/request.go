package compile

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"

	"github.com/goliatone/go-customizer/pkg/scad"
)

// MeshFormat names an output format the compiler can emit.
type MeshFormat string

const (
	// FormatSTL is the solid mesh format used for final exports.
	FormatSTL MeshFormat = "stl"
	// FormatOFF is a lightweight text format suited to previews.
	FormatOFF MeshFormat = "off"
	// Format3MF carries colour/material metadata.
	Format3MF MeshFormat = "3mf"
	// FormatGLB is a binary scene format consumable by browser viewers.
	FormatGLB MeshFormat = "glb"
)

// Definition is a single `name=value` override handed to the compiler.
type Definition struct {
	Name    string `json:"name"`
	Literal string `json:"literal"`
}

// Request is a fully assembled compile job: the unmodified source bundle
// plus ordered value overrides and the requested output format. Requests are
// deterministic: identical inputs always produce identical requests, which
// is what lets the pipeline use the snapshot generation alone as its
// staleness key.
type Request struct {
	Document    scad.Document
	Definitions []Definition
	Format      MeshFormat
	// FullRender asks the compiler for a complete (non-preview) evaluation,
	// used by the export path.
	FullRender bool
}

// Digest returns a stable content hash of the request, suitable as a cache
// key for compiled meshes.
func (r Request) Digest() string {
	h := sha256.New()
	h.Write([]byte(r.Document.MainPath()))
	h.Write([]byte{0})
	for _, path := range r.Document.Paths() {
		data, _ := r.Document.File(path)
		h.Write([]byte(path))
		h.Write([]byte{0})
		h.Write(data)
		h.Write([]byte{0})
	}
	for _, def := range r.Definitions {
		h.Write([]byte(def.Name))
		h.Write([]byte{'='})
		h.Write([]byte(def.Literal))
		h.Write([]byte{0})
	}
	h.Write([]byte(r.Format))
	if r.FullRender {
		h.Write([]byte{1})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// FormatValue serializes a canonical parameter value as a compiler-readable
// literal: booleans as bare keywords, strings re-quoted and escaped, vectors
// as bracketed numeric lists, numbers with full precision.
func FormatValue(value any) string {
	switch v := value.(type) {
	case bool:
		if v {
			return "true"
		}
		return "false"
	case int:
		return strconv.Itoa(v)
	case float64:
		return formatFloat(v)
	case string:
		return quote(v)
	case []float64:
		parts := make([]string, len(v))
		for i, elem := range v {
			parts[i] = formatFloat(elem)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	default:
		return ""
	}
}

// formatFloat keeps whole floats recognizably floating point so a re-parse
// of the emitted literal recovers the same kind.
func formatFloat(v float64) string {
	s := strconv.FormatFloat(v, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}

func quote(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\t':
			b.WriteString(`\t`)
		case '\r':
			b.WriteString(`\r`)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}
