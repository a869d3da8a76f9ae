package validate

import (
	"fmt"

	"lineup/internal/content"
	"lineup/internal/platform"
	"lineup/internal/services"
)

// Result is the outcome of validating one item against one platform.
type Result struct {
	Valid          bool
	Errors         []string
	CharacterCount int
	// PreviewText is what the platform shows before a "show more"
	// interaction, when it truncates below the hard limit.
	PreviewText string
}

// Validator applies platform rules to staged content.
type Validator struct {
	table *platform.Table
}

// New constructs a validator over the given rule table.
func New(table *platform.Table) *Validator {
	return &Validator{table: table}
}

// CheckTargets fails fast when an item targets a platform the rule table
// does not know. An unknown platform reaching validation is a bug in the
// fan-out table or the rule table, not user input, so it is classified as a
// configuration error.
func (v *Validator) CheckTargets(item *content.Item) error {
	for _, id := range item.TargetPlatforms {
		if _, ok := v.table.Lookup(id); !ok {
			return services.Wrap(services.ErrConfiguration, "validator", "check targets",
				fmt.Sprintf("item %s targets unknown platform %q", item.ID, id), nil)
		}
	}
	return nil
}

// Validate checks one item/platform pairing and returns the result without
// mutating the item.
func (v *Validator) Validate(item *content.Item, id platform.ID) (Result, error) {
	rules, ok := v.table.Lookup(id)
	if !ok {
		return Result{}, services.Wrap(services.ErrConfiguration, "validator", "validate",
			fmt.Sprintf("unknown platform %q", id), nil)
	}
	fields := item.PlatformContent[id]
	if fields == nil {
		fields = &content.FieldSet{}
	}

	result := Result{Valid: true}

	count, err := v.table.Count(id, fields.Caption, fields.Hashtags)
	if err != nil {
		return Result{}, services.Wrap(services.ErrConfiguration, "validator", "count", "", err)
	}
	result.CharacterCount = count
	if count > rules.CharacterLimit {
		result.Errors = append(result.Errors,
			fmt.Sprintf("caption and hashtags are %d characters, over the %d character limit", count, rules.CharacterLimit))
	}

	for _, req := range requiredFields {
		if !req.applies(id, item.SourceType) {
			continue
		}
		if req.present(item, fields) {
			continue
		}
		result.Errors = append(result.Errors, req.message)
	}

	result.Valid = len(result.Errors) == 0
	result.PreviewText = v.table.Preview(id, platform.ComposeText(fields.Caption, fields.Hashtags))
	return result, nil
}

// Apply validates every target platform of an item and writes the results
// back onto its field sets (character count, validity, errors). It returns
// true when every platform passed.
func (v *Validator) Apply(item *content.Item) (bool, error) {
	if err := v.CheckTargets(item); err != nil {
		return false, err
	}
	allValid := true
	for _, id := range item.TargetPlatforms {
		result, err := v.Validate(item, id)
		if err != nil {
			return false, err
		}
		fields := item.PlatformContent[id]
		if fields == nil {
			if item.PlatformContent == nil {
				item.PlatformContent = make(map[platform.ID]*content.FieldSet, len(item.TargetPlatforms))
			}
			fields = &content.FieldSet{}
			item.PlatformContent[id] = fields
		}
		fields.CharacterCount = result.CharacterCount
		fields.Valid = result.Valid
		fields.ValidationErrors = append([]string(nil), result.Errors...)
		if !result.Valid {
			allValid = false
		}
	}
	return allValid, nil
}
