package validator

import (
	"errors"
	"reflect"
	"strings"
	"sync"

	"github.com/Masterminds/semver/v3"
	"github.com/go-playground/validator/v10"
	"github.com/gofrs/uuid"
)

var (
	once sync.Once
	v    *Validate
)

// Violations lists the constraints a value failed, one "<field> failed on the '<tag>' tag"
// entry per field.
type Violations []string

func (vs Violations) Error() string {
	return "validation failed: " + strings.Join(vs, "; ")
}

func (vs Violations) Violations() []string {
	return vs
}

// Validate wraps go-playground's validator and reports failures as Violations.
type Validate struct {
	v *validator.Validate
}

func (val *Validate) Struct(s any) error {
	err := val.v.Struct(s)
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	violations := make(Violations, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		violations = append(violations, fieldPath(fe.Namespace())+" failed on the '"+fe.Tag()+"' tag")
	}
	return violations
}

// Var validates a single value against tag.
func (val *Validate) Var(field any, tag string) error {
	return val.v.Var(field, tag)
}

// fieldPath drops the root struct name from a validator namespace.
func fieldPath(namespace string) string {
	if i := strings.IndexByte(namespace, '.'); i >= 0 {
		return namespace[i+1:]
	}
	return namespace
}

func validateSemver(fl validator.FieldLevel) bool {
	_, err := semver.StrictNewVersion(fl.Field().String())
	return err == nil
}

// Validator returns a singleton that can be used to validate various objects
func Validator() *Validate {
	once.Do(func() {
		validate := validator.New(validator.WithRequiredStructEnabled())

		// Report fields by the name clients send them under.
		validate.RegisterTagNameFunc(func(field reflect.StructField) string {
			name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
			switch name {
			case "-":
				return ""
			case "":
				return field.Name
			}
			return name
		})

		if err := validate.RegisterValidation("semver", validateSemver); err != nil {
			panic("failed to register validation: " + err.Error())
		}

		// Nil UUIDs validate as empty so that "required" rejects them.
		validate.RegisterCustomTypeFunc(func(field reflect.Value) any {
			var id uuid.UUID
			switch f := field.Interface().(type) {
			case uuid.UUID:
				id = f
			case *uuid.UUID:
				if f == nil {
					return ""
				}
				id = *f
			default:
				panic("not a uuid")
			}
			if id == uuid.Nil {
				return ""
			}
			return id.String()
		}, uuid.UUID{}, &uuid.UUID{})

		v = &Validate{v: validate}
	})
	return v
}
