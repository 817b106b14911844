package subrecord

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"time"

	"github.com/dmehra2102/prod-golang-projects/wardbook/internal/domain"
)

var (
	errNotString  = errors.New("expected a string")
	errNotBool    = errors.New("expected a boolean")
	errNotInteger = errors.New("expected an integer")
	errNotNumber  = errors.New("expected a number")
)

// UpdateFromDict writes data onto rec. Existing records must present the
// stored consistency token; every write rotates it.
func UpdateFromDict(t *Type, rec Record, data map[string]any) error {
	if rec.GetID() != 0 && rec.GetConsistencyToken() != "" {
		raw, ok := data["consistency_token"]
		if !ok {
			return domain.ErrMissingConsistencyToken
		}
		if token, _ := raw.(string); token != rec.GetConsistencyToken() {
			return domain.ErrConsistency
		}
	}

	var unexpected []string
	for key := range data {
		switch key {
		case "id", "consistency_token", t.Owner.Key():
			continue
		}
		if _, ok := t.byName[key]; !ok {
			unexpected = append(unexpected, key)
		}
	}
	if len(unexpected) > 0 {
		return domain.UnexpectedFields(unexpected...)
	}

	target := reflect.ValueOf(rec).Elem()
	values := make(map[int]reflect.Value, len(data))
	for key, raw := range data {
		i, ok := t.byName[key]
		if !ok {
			continue
		}
		f := t.Fields[i]
		v, err := coerce(f, target.FieldByIndex(f.index).Type(), raw)
		if err != nil {
			return domain.InvalidValue(key, err)
		}
		values[i] = v
	}
	for i, v := range values {
		target.FieldByIndex(t.Fields[i].index).Set(v)
	}

	rec.SetConsistencyToken(domain.NewConsistencyToken())
	return nil
}

func coerce(f Field, rt reflect.Type, raw any) (reflect.Value, error) {
	if raw == nil && rt.Kind() == reflect.Pointer {
		return reflect.Zero(rt), nil
	}

	switch f.Type {
	case FieldDate, FieldDateTime:
		parse := domain.ParseDate
		if f.Type == FieldDateTime {
			parse = domain.ParseDateTime
		}
		t, err := parse(raw)
		if err != nil {
			return reflect.Value{}, err
		}
		return reflect.ValueOf(t), nil
	}

	base := rt
	if base.Kind() == reflect.Pointer {
		base = base.Elem()
	}
	out := reflect.New(base).Elem()

	switch f.Type {
	case FieldString, FieldText:
		switch s := raw.(type) {
		case nil:
		case string:
			out.SetString(s)
		default:
			return reflect.Value{}, errNotString
		}
	case FieldBoolean:
		switch b := raw.(type) {
		case nil:
		case bool:
			out.SetBool(b)
		default:
			return reflect.Value{}, errNotBool
		}
	case FieldInteger:
		n, err := toInt(raw)
		if err != nil {
			return reflect.Value{}, err
		}
		if out.OverflowInt(n) {
			return reflect.Value{}, errNotInteger
		}
		out.SetInt(n)
	case FieldFloat:
		n, err := toFloat(raw)
		if err != nil {
			return reflect.Value{}, err
		}
		out.SetFloat(n)
	}

	if rt.Kind() == reflect.Pointer {
		return out.Addr(), nil
	}
	return out, nil
}

func toInt(raw any) (int64, error) {
	switch n := raw.(type) {
	case nil:
		return 0, nil
	case float64:
		// float64(math.MaxInt64) rounds up to 2^63, so the upper bound is exclusive
		if n != math.Trunc(n) || n < math.MinInt64 || n >= math.MaxInt64 {
			return 0, errNotInteger
		}
		return int64(n), nil
	case int:
		return int64(n), nil
	case int64:
		return n, nil
	case string:
		if n == "" {
			return 0, nil
		}
		v, err := strconv.ParseInt(n, 10, 64)
		if err != nil {
			return 0, errNotInteger
		}
		return v, nil
	}
	return 0, errNotInteger
}

func toFloat(raw any) (float64, error) {
	switch n := raw.(type) {
	case nil:
		return 0, nil
	case float64:
		return n, nil
	case int:
		return float64(n), nil
	case string:
		if n == "" {
			return 0, nil
		}
		v, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return 0, errNotNumber
		}
		return v, nil
	}
	return 0, errNotNumber
}

// ToDict renders rec with its id, token, owner key and every field.
func ToDict(t *Type, rec Record) map[string]any {
	out := map[string]any{
		"id":                rec.GetID(),
		"consistency_token": rec.GetConsistencyToken(),
		t.Owner.Key():       rec.OwnerID(),
	}
	v := reflect.ValueOf(rec).Elem()
	for _, f := range t.Fields {
		out[f.Name] = dictValue(f, v.FieldByIndex(f.index))
	}
	return out
}

func dictValue(f Field, v reflect.Value) any {
	switch f.Type {
	case FieldDate, FieldDateTime:
		tp, _ := v.Interface().(*time.Time)
		if f.Type == FieldDate {
			return domain.FormatDate(tp)
		}
		return domain.FormatDateTime(tp)
	}
	if v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return nil
		}
		v = v.Elem()
	}
	return v.Interface()
}

// Describe is used by log lines and audit rows.
func Describe(t *Type, rec Record) string {
	return fmt.Sprintf("%s:%d", t.APIName, rec.GetID())
}
