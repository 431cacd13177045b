package blocks

// Block type names shipped with the lodge site.
const (
	TypeHeroImage    = "hero-image"
	TypeRichText     = "rich-text"
	TypeImageGallery = "image-gallery"
	TypeTestimonials = "testimonials"
	TypeCallToAction = "call-to-action"
	TypeRoomShowcase = "room-showcase"
	TypeAmenities    = "amenities"
	TypeFAQ          = "faq"
)

// BuiltinShapes returns the lodge block set. A fresh slice is built on every
// call so callers may append their own shapes before constructing a registry.
func BuiltinShapes() []Shape {
	return []Shape{
		{
			Type:        TypeHeroImage,
			Label:       "Hero image",
			Description: "Full width image with a headline and optional call to action.",
			Fields: []Field{
				{Name: "title", Label: "Title", Kind: KindText, Required: true, NonEmpty: true, MaxLength: 120, Default: "Welcome to the lodge"},
				{Name: "subtitle", Label: "Subtitle", Kind: KindText, MaxLength: 240, Default: ""},
				{Name: "imageSrc", Label: "Image", Kind: KindMedia, Required: true, NonEmpty: true, Default: "/static/placeholders/hero.jpg"},
				{Name: "imageAlt", Label: "Image description", Kind: KindText, MaxLength: 160, Default: ""},
				{Name: "overlay", Label: "Overlay", Kind: KindEnum, Options: []string{"none", "light", "dark"}, Default: "dark"},
				{Name: "height", Label: "Height", Kind: KindEnum, Options: []string{"small", "medium", "full"}, Default: "medium"},
				{Name: "ctaLabel", Label: "Button label", Kind: KindText, MaxLength: 40},
				{Name: "ctaHref", Label: "Button link", Kind: KindText},
			},
		},
		{
			Type:  TypeRichText,
			Label: "Rich text",
			Fields: []Field{
				{Name: "heading", Label: "Heading", Kind: KindText, MaxLength: 160, Default: ""},
				{Name: "body", Label: "Body", Kind: KindRichText, Required: true, Default: ""},
				{Name: "align", Label: "Alignment", Kind: KindEnum, Options: []string{"left", "center"}, Default: "left"},
			},
		},
		{
			Type:  TypeImageGallery,
			Label: "Image gallery",
			Fields: []Field{
				{Name: "heading", Label: "Heading", Kind: KindText, MaxLength: 160, Default: ""},
				{Name: "layout", Label: "Layout", Kind: KindEnum, Options: []string{"grid", "carousel", "masonry"}, Default: "grid"},
				{Name: "columns", Label: "Columns", Kind: KindNumber, Integer: true, Min: bound(1), Max: bound(6), Default: 3},
				{Name: "images", Label: "Images", Kind: KindArray, Required: true, MaxItems: 48, Default: []any{}, Fields: []Field{
					{Name: "src", Label: "Image", Kind: KindMedia, Required: true, NonEmpty: true},
					{Name: "alt", Label: "Description", Kind: KindText, MaxLength: 160},
					{Name: "caption", Label: "Caption", Kind: KindText, MaxLength: 240},
				}},
			},
		},
		{
			Type:  TypeTestimonials,
			Label: "Testimonials",
			Fields: []Field{
				{Name: "heading", Label: "Heading", Kind: KindText, MaxLength: 160, Default: "What our guests say"},
				{Name: "entries", Label: "Entries", Kind: KindArray, Required: true, MaxItems: 24, Default: []any{}, Fields: []Field{
					{Name: "quote", Label: "Quote", Kind: KindText, Required: true, NonEmpty: true, MaxLength: 600},
					{Name: "author", Label: "Author", Kind: KindText, Required: true, NonEmpty: true, MaxLength: 80},
					{Name: "origin", Label: "From", Kind: KindText, MaxLength: 80},
					{Name: "rating", Label: "Rating", Kind: KindNumber, Integer: true, Min: bound(1), Max: bound(5)},
				}},
			},
		},
		{
			Type:  TypeCallToAction,
			Label: "Call to action",
			Fields: []Field{
				{Name: "headline", Label: "Headline", Kind: KindText, Required: true, NonEmpty: true, MaxLength: 120, Default: "Plan your stay"},
				{Name: "body", Label: "Body", Kind: KindRichText, Default: ""},
				{Name: "background", Label: "Background image", Kind: KindMedia},
				{Name: "button", Label: "Button", Kind: KindObject, Required: true, Fields: []Field{
					{Name: "label", Label: "Label", Kind: KindText, Required: true, NonEmpty: true, MaxLength: 40, Default: "Book now"},
					{Name: "href", Label: "Link", Kind: KindText, Required: true, NonEmpty: true, Default: "/booking"},
					{Name: "style", Label: "Style", Kind: KindEnum, Options: []string{"primary", "secondary"}, Default: "primary"},
				}},
			},
		},
		{
			Type:  TypeRoomShowcase,
			Label: "Room showcase",
			Fields: []Field{
				{Name: "heading", Label: "Heading", Kind: KindText, MaxLength: 160, Default: "Our rooms"},
				{Name: "currency", Label: "Currency", Kind: KindEnum, Options: []string{"EUR", "USD", "GBP", "CHF"}, Default: "EUR"},
				{Name: "rooms", Label: "Rooms", Kind: KindArray, Required: true, MaxItems: 30, Default: []any{}, Fields: []Field{
					{Name: "name", Label: "Name", Kind: KindText, Required: true, NonEmpty: true, MaxLength: 80},
					{Name: "description", Label: "Description", Kind: KindRichText},
					{Name: "imageSrc", Label: "Image", Kind: KindMedia},
					{Name: "nightlyRate", Label: "Nightly rate", Kind: KindNumber, Min: bound(0)},
					{Name: "capacity", Label: "Guests", Kind: KindNumber, Integer: true, Min: bound(1), Max: bound(20)},
					{Name: "petsAllowed", Label: "Pets allowed", Kind: KindBoolean},
				}},
			},
		},
		{
			Type:  TypeAmenities,
			Label: "Amenities",
			Fields: []Field{
				{Name: "heading", Label: "Heading", Kind: KindText, MaxLength: 160, Default: "Amenities"},
				{Name: "items", Label: "Items", Kind: KindArray, Required: true, MaxItems: 40, Default: []any{}, Fields: []Field{
					{Name: "label", Label: "Label", Kind: KindText, Required: true, NonEmpty: true, MaxLength: 60},
					{Name: "icon", Label: "Icon", Kind: KindEnum, Required: true, Options: []string{
						"wifi", "fireplace", "sauna", "parking", "breakfast", "hiking", "pets", "spa", "ski",
					}},
				}},
			},
		},
		{
			Type:  TypeFAQ,
			Label: "Questions and answers",
			Fields: []Field{
				{Name: "heading", Label: "Heading", Kind: KindText, MaxLength: 160, Default: "Frequently asked questions"},
				{Name: "entries", Label: "Entries", Kind: KindArray, Required: true, MaxItems: 50, Default: []any{}, Fields: []Field{
					{Name: "question", Label: "Question", Kind: KindText, Required: true, NonEmpty: true, MaxLength: 200},
					{Name: "answer", Label: "Answer", Kind: KindRichText, Required: true, NonEmpty: true},
				}},
			},
		},
	}
}
