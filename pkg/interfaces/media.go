package interfaces

// MediaResource is a single servable file of an asset: the original upload or
// one of its derivatives.
type MediaResource struct {
	Label    string `json:"label"`
	Path     string `json:"path"`
	URL      string `json:"url"`
	MimeType string `json:"mime_type,omitempty"`
	Width    int    `json:"width,omitempty"`
	Height   int    `json:"height,omitempty"`
}

// MediaAttachment is what renderers receive for an image field: the original
// and every derivative ready so far, keyed by breakpoint label.
type MediaAttachment struct {
	AssetID             string                   `json:"asset_id"`
	AltText             string                   `json:"alt_text,omitempty"`
	Caption             string                   `json:"caption,omitempty"`
	Original            MediaResource            `json:"original"`
	Variants            map[string]MediaResource `json:"variants"`
	ProcessingCompleted bool                     `json:"processing_completed"`
}

// Best returns the widest variant whose width does not exceed maxWidth, the
// narrowest variant when none fit, or the original when there are no variants.
func (a MediaAttachment) Best(maxWidth int) MediaResource {
	var (
		best     MediaResource
		found    bool
		smallest MediaResource
	)
	for _, variant := range a.Variants {
		if smallest.Path == "" || variant.Width < smallest.Width {
			smallest = variant
		}
		if variant.Width <= maxWidth && (!found || variant.Width > best.Width) {
			best = variant
			found = true
		}
	}
	switch {
	case found:
		return best
	case smallest.Path != "":
		return smallest
	default:
		return a.Original
	}
}
