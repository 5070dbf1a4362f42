package service

import (
	"errors"
	"fmt"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"doccatalog/internal/model"
)

// ErrValidation wraps every input validation failure.
var ErrValidation = errors.New("validation failed")

func notBlank(value any) error {
	s, _ := value.(string)
	if strings.TrimSpace(s) == "" {
		return errors.New("must not be blank")
	}
	return nil
}

func categoryRule(cats []model.Category) validation.Rule {
	ids := make([]any, len(cats))
	for i, c := range cats {
		ids[i] = c.ID
	}
	return validation.In(ids...).Error("must be a known category")
}

func validateInput(in model.DocumentInput, cats []model.Category) error {
	err := validation.ValidateStruct(&in,
		validation.Field(&in.Name, validation.Required, validation.By(notBlank)),
		validation.Field(&in.Size, validation.Min(int64(0))),
		validation.Field(&in.Tags, validation.Each(validation.By(notBlank))),
		validation.Field(&in.Category, validation.Required, categoryRule(cats)),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	return nil
}

func validatePatch(p model.DocumentPatch, cats []model.Category) error {
	errs := validation.Errors{}
	if p.Name != nil {
		errs["name"] = validation.Validate(*p.Name, validation.Required, validation.By(notBlank))
	}
	if p.Size != nil {
		errs["size"] = validation.Validate(*p.Size, validation.Min(int64(0)))
	}
	if p.Tags != nil {
		errs["tags"] = validation.Validate(*p.Tags, validation.Each(validation.By(notBlank)))
	}
	if p.Category != nil {
		errs["category"] = validation.Validate(*p.Category, validation.Required, categoryRule(cats))
	}
	if err := errs.Filter(); err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	return nil
}

func validateViewUpdate(u ViewUpdate, cats []model.Category) error {
	errs := validation.Errors{}
	if u.SortField != nil {
		fields := make([]any, len(model.SortFields))
		for i, f := range model.SortFields {
			fields[i] = f
		}
		errs["sortField"] = validation.Validate(*u.SortField, validation.Required,
			validation.In(fields...).Error("must be one of name, createdAt, modifiedAt, size, type"))
	}
	if u.SortOrder != nil {
		errs["sortOrder"] = validation.Validate(*u.SortOrder, validation.Required,
			validation.In(model.Ascending, model.Descending).Error("must be asc or desc"))
	}
	if u.SelectedCategory != nil && *u.SelectedCategory != "" {
		errs["selectedCategory"] = validation.Validate(*u.SelectedCategory, categoryRule(cats))
	}
	if err := errs.Filter(); err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	return nil
}
