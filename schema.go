package scalemerge

import (
	"fmt"
	"slices"

	"github.com/scigolib/scalemerge/internal/model"
)

// checkCompatible reports the first difference between the catalog of
// other and that of ref. Global attributes are not compared.
func checkCompatible(ref, other *Schema) error {
	if len(ref.Dimensions) != len(other.Dimensions) {
		return fmt.Errorf("%d dimensions, expected %d", len(other.Dimensions), len(ref.Dimensions))
	}
	for i, d := range ref.Dimensions {
		o := other.Dimensions[i]
		if o.Name != d.Name {
			return fmt.Errorf("dimension %d is %q, expected %q", i, o.Name, d.Name)
		}
		if o.Size != d.Size {
			return fmt.Errorf("dimension %q has size %d, expected %d", d.Name, o.Size, d.Size)
		}
	}

	if len(ref.Variables) != len(other.Variables) {
		return fmt.Errorf("%d variables, expected %d", len(other.Variables), len(ref.Variables))
	}
	for i := range ref.Variables {
		v := &ref.Variables[i]
		o, ok := other.Variable(v.Name)
		if !ok {
			return fmt.Errorf("variable %q is missing", v.Name)
		}
		if o.Type != v.Type {
			return fmt.Errorf("variable %q has type %v, expected %v", v.Name, o.Type, v.Type)
		}
		if !slices.Equal(o.Dimensions, v.Dimensions) {
			return fmt.Errorf("variable %q has dimensions %v, expected %v", v.Name, o.Dimensions, v.Dimensions)
		}
	}
	return nil
}

// checkScaleName rejects inputs that already use the scale dimension name.
func checkScaleName(ref *Schema, scaleDim string) error {
	if _, ok := ref.Dimension(scaleDim); ok {
		return fmt.Errorf("inputs already have a dimension named %q", scaleDim)
	}
	if _, ok := ref.Variable(scaleDim); ok {
		return fmt.Errorf("inputs already have a variable named %q", scaleDim)
	}
	return nil
}

// checkDimensionSizes rejects empty dimensions. Behind the scale
// dimension every dimension must have a fixed, nonzero size.
func checkDimensionSizes(ref *Schema) error {
	for _, d := range ref.Dimensions {
		if d.Size == 0 {
			return fmt.Errorf("dimension %q is empty (unlimited with no records)", d.Name)
		}
	}
	return nil
}

// outputSchema builds the merged catalog from the first sorted input:
// the scale dimension and its coordinate come first, every other
// dimension is copied, and every variable that is not a dimension
// coordinate gains the scale dimension as its leading axis.
func outputSchema(ref *Schema, n int, cfg *MergeConfig) *Schema {
	out := &Schema{
		Dimensions: make([]model.Dimension, 0, len(ref.Dimensions)+1),
		Variables:  make([]model.Variable, 0, len(ref.Variables)+1),
	}

	out.Dimensions = append(out.Dimensions, model.Dimension{Name: cfg.ScaleDimension, Size: n})
	out.Dimensions = append(out.Dimensions, ref.Dimensions...)

	out.Variables = append(out.Variables, model.Variable{
		Name:       cfg.ScaleDimension,
		Type:       model.Double,
		Dimensions: []string{cfg.ScaleDimension},
		Attributes: []model.Attribute{{Name: "long_name", Value: cfg.ScaleAttribute}},
	})

	for _, v := range ref.Variables {
		dims := append([]string(nil), v.Dimensions...)
		if !ref.IsCoordinate(v.Name) {
			dims = append([]string{cfg.ScaleDimension}, dims...)
		}
		out.Variables = append(out.Variables, model.Variable{
			Name:       v.Name,
			Type:       v.Type,
			Dimensions: dims,
			Attributes: copyAttributes(v.Attributes, DroppedAttributes),
		})
	}

	// The per-file scale now lives in the coordinate variable.
	out.Attributes = copyAttributes(ref.Attributes, []string{cfg.ScaleAttribute})
	return out
}

func copyAttributes(attrs []model.Attribute, drop []string) []model.Attribute {
	var out []model.Attribute
	for _, a := range attrs {
		if slices.Contains(drop, a.Name) {
			continue
		}
		out = append(out, a)
	}
	return out
}
