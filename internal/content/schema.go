package content

// FieldKind tells forms how to present a field and the write path how to
// coerce it.
type FieldKind string

const (
	KindText     FieldKind = "text"
	KindRichText FieldKind = "richtext"
	KindURL      FieldKind = "url"
	KindDate     FieldKind = "date"
	KindInt      FieldKind = "int"
	KindFile     FieldKind = "file"
)

// Field maps one form input to one document field.
type Field struct {
	Name     string
	Label    string
	Kind     FieldKind
	Required bool
}

var schemas = map[Category][]Field{
	Projects: {
		{Name: "title", Label: "Title", Kind: KindText, Required: true},
		{Name: "link", Label: "Link", Kind: KindURL},
		{Name: "date", Label: "Date", Kind: KindDate},
		{Name: "description", Label: "Description (HTML)", Kind: KindRichText},
		{Name: "image", Label: "Image URL", Kind: KindURL},
		{Name: FieldImageFile, Label: "Upload image", Kind: KindFile},
	},
	Talks: {
		{Name: "title", Label: "Title", Kind: KindText, Required: true},
		{Name: "link", Label: "Link", Kind: KindURL},
		{Name: "order", Label: "Order", Kind: KindInt},
		{Name: "description", Label: "Description (HTML)", Kind: KindRichText},
		{Name: "image", Label: "Image URL", Kind: KindURL},
		{Name: FieldImageFile, Label: "Upload image", Kind: KindFile},
	},
	Papers: {
		{Name: "title", Label: "Title", Kind: KindText, Required: true},
		{Name: "authors", Label: "Authors", Kind: KindText},
		{Name: "venue", Label: "Venue", Kind: KindText},
		{Name: "date", Label: "Date / Year", Kind: KindDate},
		{Name: "link", Label: "Link", Kind: KindURL},
	},
	Experience: {
		{Name: "title", Label: "Role / Organization", Kind: KindText, Required: true},
		{Name: "date", Label: "Period", Kind: KindDate},
		{Name: "description", Label: "Description (HTML)", Kind: KindRichText},
		{Name: "logo", Label: "Logo URL", Kind: KindURL},
		{Name: FieldImageFile, Label: "Upload logo", Kind: KindFile},
	},
	News: {
		{Name: "title", Label: "Title", Kind: KindText, Required: true},
		{Name: "date", Label: "Date", Kind: KindDate},
		{Name: "description", Label: "Description (HTML)", Kind: KindRichText},
		{Name: "link", Label: "Link", Kind: KindURL},
		{Name: "image", Label: "Image URL", Kind: KindURL},
		{Name: FieldImageFile, Label: "Upload image", Kind: KindFile},
	},
	Music: {
		{Name: "title", Label: "Title", Kind: KindText, Required: true},
		{Name: "content", Label: "Embed / content (HTML)", Kind: KindRichText},
	},
}

// Schema returns the ordered field list for a category. The slice is shared;
// callers must not modify it.
func Schema(c Category) []Field {
	return schemas[c]
}

// FileField returns the file input of a category's form, if it has one.
func FileField(c Category) (Field, bool) {
	for _, f := range schemas[c] {
		if f.Kind == KindFile {
			return f, true
		}
	}
	return Field{}, false
}

// ImageField names the field that receives an uploaded file's URL.
func ImageField(c Category) string {
	if c == Experience {
		return "logo"
	}
	return "image"
}

// Noun is the singular display name used in submit labels.
func Noun(c Category) string {
	switch c {
	case Projects:
		return "Project"
	case Papers:
		return "Paper"
	case Talks:
		return "Talk"
	case News:
		return "News Item"
	case Experience:
		return "Experience"
	default:
		return "Item"
	}
}
