// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

package attrs

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/apex/log"
)

// Keys are the country fields an Attr can address.
var Keys = []string{"code", "name", "flag", "map"}

// Defaults are the columns shown when --attrs is not given.
const Defaults = "code,name,flag"

// ErrUnknownKey is returned by Set for a key that is not in Keys.
var ErrUnknownKey = errors.New("unknown attribute")

var lengthRe = regexp.MustCompile(`-?\d+`)

// Attr represents each of the country fields to be included in the output.
type Attr struct {
	// The country field to read.
	Key string `yaml:"key"`
	// Should this Attr be included in output or is it just
	// intended to carry a transform?
	Include bool `yaml:"include"`
	// The key to use in the output. This is also the column title when
	// output=text.
	OutputKey string `yaml:"outputKey"`
	// Transformation spec to apply to the output value.
	TransformSpec string `yaml:"transformSpec"`
}

// Transform applies the case and length parts of the TransformSpec to value.
func (a *Attr) Transform(value string) string {
	result := value

	// We need to know which case transformation appears last.  This covers the
	// case where there has been a global case transformation prepended to the
	// attrs transformation and, thus, allows the attr's to carry more weight.
	// IOW...  --attrs '*::U,name::l' will be lower case.
	lastL := strings.LastIndexAny(a.TransformSpec, "lL")
	lastU := strings.LastIndexAny(a.TransformSpec, "uU")

	if lastL > lastU {
		result = strings.ToLower(result)
	} else if lastU > lastL {
		result = strings.ToUpper(result)
	}

	// Is it a length-based transformation?
	if a.TransformSpec == "" {
		return result
	}

	// Same logic as above re: case.  This allows a more specific length
	// transformation to override a global one.
	match := lengthRe.FindAllString(a.TransformSpec, -1)
	if len(match) == 0 {
		return result
	}

	// Take the last (overriding) match.
	l, _ := strconv.Atoi(match[len(match)-1])
	abs := int(math.Abs(float64(l)))
	runes := []rune(result)
	if len(runes) <= abs {
		return result
	}
	if l >= 0 {
		return string(runes[:l])
	}

	// A negative length keeps both ends around a "..".
	lr := abs/2 - 1 //nolint:mnd
	if lr < 1 {
		return string(runes[:abs])
	}
	return string(runes[:lr]) + ".." + string(runes[len(runes)-lr:])
}

type AttrList []Attr

// Return a string representation of the AttrList.  This should match the format
// of the original --attrs flag.
func (a *AttrList) String() string {
	result := make([]string, 0, len(*a))
	for _, attr := range *a {
		result = append(result, fmt.Sprintf("%s:%s:%s", attr.Key, attr.OutputKey, attr.TransformSpec))
	}
	return strings.Join(result, ",")
}

// Parse each spec from the --attrs flag and add it to the AttrList.
func (a *AttrList) Set(value string) error {
	if value == "" {
		return nil
	}

	const (
		keyIdx = iota
		outputIdx
		transformIdx
	)

	// There are three : delimited fields in each spec.  The first is the
	// country field.  The second is the key to use in the output.  The third is
	// the transformation spec to apply to the output value.  The latter two are
	// optional and the output key defaults to the field name.
	var errs []error
specloop:
	for _, spec := range strings.Split(value, ",") {
		if strings.TrimSpace(spec) == "" {
			continue
		}

		attr := Attr{
			Include: true,
		}

		fields := strings.Split(spec, ":")

		// The first field is the country field.  If it begins with a !, it is
		// excluded from the output.
		attr.Key = strings.ToLower(strings.TrimSpace(fields[keyIdx]))
		if strings.HasPrefix(attr.Key, "!") {
			attr.Include = false
			attr.Key = attr.Key[1:]
		}

		if attr.Key == "*" {
			attr.Include = false
		} else if !slices.Contains(Keys, attr.Key) {
			log.Errorf("unknown attribute: %s", attr.Key)
			errs = append(errs, fmt.Errorf("%w: %s", ErrUnknownKey, attr.Key))
			continue
		}

		attr.OutputKey = attr.Key
		if len(fields) > outputIdx && strings.TrimSpace(fields[outputIdx]) != "" {
			attr.OutputKey = strings.TrimSpace(fields[outputIdx])
		}

		if len(fields) > transformIdx {
			attr.TransformSpec = strings.TrimSpace(fields[transformIdx])
		}

		// If the attr already exists in the list (because it's one of the defaults
		// or the user double-entered it) just apply the OutputKey, Include
		// and TransformSpec to the existing Attr.
		for i := range *a {
			if (*a)[i].Key == attr.Key {
				(*a)[i].Include = attr.Include
				if len(fields) > outputIdx {
					(*a)[i].OutputKey = attr.OutputKey
				}
				(*a)[i].TransformSpec = attr.TransformSpec
				continue specloop
			}
		}

		*a = append(*a, attr)
	}

	return errors.Join(errs...)
}

// SetGlobalTransformSpec inserts a global transform spec into the front of all
// attrs in the list.
func (alist *AttrList) SetGlobalTransformSpec() error {
	spec := ""

	// Find the global transform spec.  If there is more than one, we're not
	// dealing with it and just taking the first.
	for a := range *alist {
		if (*alist)[a].Key == "*" {
			spec = (*alist)[a].TransformSpec
			break
		}
	}

	// Return early if there is no global transform spec.
	if spec == "" {
		return nil
	}

	// Slam the global spec onto
	for a := range *alist {
		if (*alist)[a].Key == "*" {
			continue
		}
		(*alist)[a].TransformSpec = spec + "," + (*alist)[a].TransformSpec
	}

	return nil
}

func (a *AttrList) Type() string {
	return "list"
}

// Included returns the attrs that produce output, in order.
func (a AttrList) Included() AttrList {
	out := make(AttrList, 0, len(a))
	for _, attr := range a {
		if attr.Include && attr.Key != "*" {
			out = append(out, attr)
		}
	}
	return out
}

// Build returns the default columns with spec applied on top and the global
// transform spread over every column.
func Build(spec string) (AttrList, error) {
	var al AttrList
	if err := al.Set(Defaults); err != nil {
		return nil, err
	}
	err := al.Set(spec)
	_ = al.SetGlobalTransformSpec()
	return al, err
}
