package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/scigolib/scalemerge"
	"github.com/scigolib/scalemerge/internal/model"
)

// writeSchema prints src's header in CDL.
func writeSchema(w io.Writer, src scalemerge.Source) error {
	s := src.Schema()
	name := strings.TrimSuffix(filepath.Base(src.Path()), filepath.Ext(src.Path()))

	var b strings.Builder
	fmt.Fprintf(&b, "netcdf %s { // format: %s\n", name, src.Format())

	if len(s.Dimensions) > 0 {
		b.WriteString("dimensions:\n")
		for _, d := range s.Dimensions {
			fmt.Fprintf(&b, "\t%s = %d ;\n", d.Name, d.Size)
		}
	}

	if len(s.Variables) > 0 {
		b.WriteString("variables:\n")
		for _, v := range s.Variables {
			fmt.Fprintf(&b, "\t%s %s", v.Type, v.Name)
			if len(v.Dimensions) > 0 {
				fmt.Fprintf(&b, "(%s)", strings.Join(v.Dimensions, ", "))
			}
			b.WriteString(" ;\n")
			for _, a := range v.Attributes {
				fmt.Fprintf(&b, "\t\t%s:%s = %s ;\n", v.Name, a.Name, formatValue(a.Value))
			}
		}
	}

	if len(s.Attributes) > 0 {
		b.WriteString("\n// global attributes:\n")
		for _, a := range s.Attributes {
			fmt.Fprintf(&b, "\t\t:%s = %s ;\n", a.Name, formatValue(a.Value))
		}
	}
	b.WriteString("}\n")

	_, err := io.WriteString(w, b.String())
	return err
}

// formatValue renders an attribute value as CDL.
func formatValue(value interface{}) string {
	if s, ok := value.(string); ok {
		return fmt.Sprintf("%q", s)
	}
	norm, err := model.NormalizeAttribute(value)
	if err != nil {
		return fmt.Sprintf("%v", value)
	}
	if s, ok := norm.(string); ok {
		return fmt.Sprintf("%q", s)
	}
	vals, err := model.ToFloat64(norm)
	if err != nil {
		return fmt.Sprintf("%v", norm)
	}
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = fmt.Sprintf("%g", v)
	}
	return strings.Join(parts, ", ")
}

// dumpFileHex writes length bytes of path starting at offset.
func dumpFileHex(w io.Writer, path string, offset int64, length int) error {
	f, err := os.Open(path) //nolint:gosec // G304: user-provided path
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer func() { _ = f.Close() }()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("failed to get file info: %w", err)
	}
	size := info.Size()

	if offset < 0 || offset >= size {
		return fmt.Errorf("invalid offset: %d (file size: %d)", offset, size)
	}
	if length < 1 {
		return fmt.Errorf("invalid length: %d", length)
	}

	n := int64(length)
	if remaining := size - offset; n > remaining {
		n = remaining
	}
	buf := make([]byte, n)
	got, err := f.ReadAt(buf, offset)
	if err != nil && got == 0 {
		return fmt.Errorf("read error: %w", err)
	}

	fmt.Fprintf(w, "Dumping %d bytes at offset 0x%x (%d) of %s (size: %d bytes):\n",
		got, offset, offset, path, size)
	writeHex(w, buf[:got], offset)
	return nil
}

// writeHex prints data as 16-byte rows of hex and printable ASCII,
// labelled with file offsets starting at base.
func writeHex(w io.Writer, data []byte, base int64) {
	for i := 0; i < len(data); i += 16 {
		chunk := data[i:min(i+16, len(data))]

		fmt.Fprintf(w, "%08x: ", base+int64(i))
		for j := 0; j < 16; j++ {
			if j < len(chunk) {
				fmt.Fprintf(w, "%02x ", chunk[j])
			} else {
				fmt.Fprint(w, "   ")
			}
			if j == 7 {
				fmt.Fprint(w, " ")
			}
		}
		fmt.Fprint(w, " |")
		for _, c := range chunk {
			if c >= 32 && c <= 126 {
				fmt.Fprintf(w, "%c", c)
			} else {
				fmt.Fprint(w, ".")
			}
		}
		fmt.Fprintln(w, "|")
	}
}
