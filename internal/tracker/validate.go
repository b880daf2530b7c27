package tracker

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"timeplanner/internal/calendar"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report fields by their wire names so messages match the stored documents.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// checkStruct runs tag validation and reports failures with the given prefix.
func checkStruct(prefix string, v any) ValidationErrors {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return ValidationErrors{{Field: prefix, Message: err.Error()}}
	}
	out := make(ValidationErrors, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		out = append(out, ValidationError{
			Field:   prefix + "." + fe.Field(),
			Message: describeTag(fe),
		})
	}
	return out
}

func describeTag(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "oneof":
		return fmt.Sprintf("must be one of [%s], got %q", fe.Param(), fe.Value())
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	case "datetime":
		return fmt.Sprintf("must be a YYYY-MM-DD date, got %q", fe.Value())
	default:
		return fmt.Sprintf("failed %q rule", fe.Tag())
	}
}

func validateGoal(g Goal) error {
	if errs := checkStruct("goal", g); len(errs) > 0 {
		return errs
	}
	return nil
}

func validateActivity(a Activity) error {
	errs := checkStruct("activity", a)
	switch a.Kind {
	case KindSimple:
		if a.Plan == nil {
			errs = append(errs, ValidationError{Field: "activity.plan", Message: "a simple activity requires an execution plan"})
		} else {
			errs = append(errs, checkPlanShape("activity.plan", *a.Plan)...)
		}
	case KindComposite:
		if a.Plan != nil {
			errs = append(errs, ValidationError{Field: "activity.plan", Message: "a composite activity cannot own an execution plan"})
		}
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

func validateSubActivity(s SubActivity) error {
	errs := checkStruct("subactivity", s)
	errs = append(errs, checkPlanShape("subactivity.plan", s.Plan)...)
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// checkPlanShape validates the user-provided part of a plan, before expansion.
func checkPlanShape(prefix string, p ExecutionPlan) ValidationErrors {
	errs := checkStruct(prefix, p)
	switch p.Type {
	case PlanWeekly:
		if calendar.NewWeekdaySet(p.PatternDays...).Len() == 0 {
			errs = append(errs, ValidationError{Field: prefix + ".pattern_days", Message: "select at least one weekday"})
		}
		for i, d := range p.PatternDays {
			if !d.Valid() {
				errs = append(errs, ValidationError{Field: fmt.Sprintf("%s.pattern_days[%d]", prefix, i), Message: fmt.Sprintf("invalid weekday %q", d)})
			}
		}
	case PlanDates:
		if len(p.Dates) == 0 {
			errs = append(errs, ValidationError{Field: prefix + ".dates", Message: "provide at least one date"})
		}
		for i, d := range p.Dates {
			if _, err := calendar.ParseDate(d); err != nil {
				errs = append(errs, ValidationError{Field: fmt.Sprintf("%s.dates[%d]", prefix, i), Message: err.Error()})
			}
		}
	}
	return errs
}
