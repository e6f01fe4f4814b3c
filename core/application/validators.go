package application

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/jobtrack/core"
)

var (
	statusTag  = "appstatus"
	statusText = "{0} must be one of applied, screening, interviewing, offer, accepted, rejected or withdrawn"

	salaryNegTag  = "salaryneg"
	salaryNegText = "{0} cannot be negative"

	salaryRangeTag  = "salaryrange"
	salaryRangeText = "salary_max must be greater than or equal to salary_min"
)

// InitValidators registers the application validators & their translations.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(statusTag, statusValidation)
	core.RegisterCustomTranslation(validate, translator, statusTag, statusText)

	validate.RegisterStructValidation(applicationStructValidation, NewApplication{}, UpdateApplication{})
	core.RegisterCustomTranslation(validate, translator, salaryNegTag, salaryNegText)
	core.RegisterCustomTranslation(validate, translator, salaryRangeTag, salaryRangeText)
}

func statusValidation(fl validator.FieldLevel) bool {
	return Status(fl.Field().String()).IsValid()
}

func applicationStructValidation(sl validator.StructLevel) {
	switch app := sl.Current().Interface().(type) {
	case NewApplication:
		validateSalary(app.SalaryMin, app.SalaryMax, sl)
	case UpdateApplication:
		validateSalary(app.SalaryMin, app.SalaryMax, sl)
	}
}

func validateSalary(lo, hi null.Int, sl validator.StructLevel) {
	if lo.Valid && lo.Int < 0 {
		sl.ReportError(lo, "salary_min", "SalaryMin", salaryNegTag, "")
		return
	}
	if hi.Valid && hi.Int < 0 {
		sl.ReportError(hi, "salary_max", "SalaryMax", salaryNegTag, "")
		return
	}
	if lo.Valid && hi.Valid && lo.Int > hi.Int {
		sl.ReportError(hi, "salary_max", "SalaryMax", salaryRangeTag, "")
	}
}
