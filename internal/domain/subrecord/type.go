package subrecord

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"gorm.io/gorm/schema"
)

type FieldType string

const (
	FieldString   FieldType = "string"
	FieldText     FieldType = "text"
	FieldBoolean  FieldType = "boolean"
	FieldInteger  FieldType = "integer"
	FieldFloat    FieldType = "float"
	FieldDate     FieldType = "date"
	FieldDateTime FieldType = "date_time"
)

type Field struct {
	Name       string
	Title      string
	Type       FieldType
	LookupList string

	index []int
}

// Options carries the display metadata that cannot be read off the struct.
type Options struct {
	DisplayName        string
	Icon               string
	Single             bool
	AdvancedSearchable bool
}

type Type struct {
	APIName            string
	DisplayName        string
	Icon               string
	Single             bool
	AdvancedSearchable bool
	Owner              Owner
	Fields             []Field

	goType reflect.Type
	byName map[string]int
}

var (
	naming   = schema.NamingStrategy{SingularTable: true}
	timeType = reflect.TypeOf(time.Time{})
)

// NewType reflects over proto, which must be a pointer to a struct embedding
// EpisodeSubrecord or PatientSubrecord.
func NewType(proto Record, opts Options) (*Type, error) {
	rt := reflect.TypeOf(proto)
	if rt == nil || rt.Kind() != reflect.Pointer || rt.Elem().Kind() != reflect.Struct {
		return nil, ErrNotStruct
	}
	st := rt.Elem()

	t := &Type{
		APIName:            naming.TableName(st.Name()),
		DisplayName:        opts.DisplayName,
		Icon:               opts.Icon,
		Single:             opts.Single,
		AdvancedSearchable: opts.AdvancedSearchable,
		Owner:              proto.Owner(),
		goType:             st,
		byName:             map[string]int{},
	}
	if t.DisplayName == "" {
		t.DisplayName = humanize(t.APIName)
	}

	for i := 0; i < st.NumField(); i++ {
		sf := st.Field(i)
		if sf.Anonymous || !sf.IsExported() {
			continue
		}
		name, _, _ := strings.Cut(sf.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			continue
		}
		ft, err := fieldType(sf)
		if err != nil {
			return nil, fmt.Errorf("%s.%s: %w", st.Name(), sf.Name, err)
		}
		title := sf.Tag.Get("title")
		if title == "" {
			title = humanize(name)
		}
		t.byName[name] = len(t.Fields)
		t.Fields = append(t.Fields, Field{
			Name:       name,
			Title:      title,
			Type:       ft,
			LookupList: sf.Tag.Get("lookup"),
			index:      sf.Index,
		})
	}
	return t, nil
}

func fieldType(sf reflect.StructField) (FieldType, error) {
	settings := schema.ParseTagSetting(sf.Tag.Get("gorm"), ";")
	ft := sf.Type
	if ft.Kind() == reflect.Pointer {
		ft = ft.Elem()
	}
	if ft == timeType {
		if sf.Type.Kind() != reflect.Pointer {
			return "", errors.New("date fields must be *time.Time")
		}
		if strings.EqualFold(settings["TYPE"], "date") {
			return FieldDate, nil
		}
		return FieldDateTime, nil
	}
	switch ft.Kind() {
	case reflect.String:
		if strings.EqualFold(settings["TYPE"], "text") {
			return FieldText, nil
		}
		return FieldString, nil
	case reflect.Bool:
		return FieldBoolean, nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return FieldInteger, nil
	case reflect.Float32, reflect.Float64:
		return FieldFloat, nil
	}
	return "", fmt.Errorf("unsupported field kind %s", ft.Kind())
}

// New returns an empty record of this type.
func (t *Type) New() Record {
	return reflect.New(t.goType).Interface().(Record)
}

// NewSlice returns a pointer to an empty []*T suitable for gorm's Find.
func (t *Type) NewSlice() any {
	return reflect.New(reflect.SliceOf(reflect.PointerTo(t.goType))).Interface()
}

// Records unpacks a slice built by NewSlice.
func (t *Type) Records(slice any) []Record {
	v := reflect.ValueOf(slice)
	if v.Kind() == reflect.Pointer {
		v = v.Elem()
	}
	out := make([]Record, 0, v.Len())
	for i := 0; i < v.Len(); i++ {
		out = append(out, v.Index(i).Interface().(Record))
	}
	return out
}

// Field looks up a field by its dict name.
func (t *Type) Field(name string) (Field, bool) {
	i, ok := t.byName[name]
	if !ok {
		return Field{}, false
	}
	return t.Fields[i], true
}

func (t *Type) Schema() map[string]any {
	fields := make([]map[string]any, 0, len(t.Fields))
	for _, f := range t.Fields {
		var lookup any
		if f.LookupList != "" {
			lookup = f.LookupList
		}
		fields = append(fields, map[string]any{
			"name":        f.Name,
			"title":       f.Title,
			"type":        string(f.Type),
			"lookup_list": lookup,
		})
	}
	return map[string]any{
		"name":                t.APIName,
		"display_name":        t.DisplayName,
		"single":              t.Single,
		"advanced_searchable": t.AdvancedSearchable,
		"icon":                t.Icon,
		"fields":              fields,
	}
}

func humanize(name string) string {
	s := strings.ReplaceAll(name, "_", " ")
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
