// Package chatdom isolates the chat page's DOM contract: which selectors find
// the message list, how a message's author is marked, and how its text is read.
package chatdom

// Selectors is the host page structure contract. Every field can be
// overridden from the YAML config when the site changes its markup.
type Selectors struct {
	List string `yaml:"list"`
	Item string `yaml:"item"`

	RecruiterClass string `yaml:"recruiter_class"`
	SelfClass      string `yaml:"self_class"`
	SystemClass    string `yaml:"system_class"`
	IDAttr         string `yaml:"id_attr"`
	Time           string `yaml:"time"`

	Input string `yaml:"input"`

	NoiseMarkers     []string `yaml:"noise_markers"`
	Image            string   `yaml:"image"`
	ImagePlaceholder string   `yaml:"image_placeholder"`
	CardTitle        string   `yaml:"card_title"`
	DialogTitle      string   `yaml:"dialog_title"`
	DialogDesc       string   `yaml:"dialog_desc"`
	Text             string   `yaml:"text"`
	TextFallbacks    []string `yaml:"text_fallbacks"`
	ReadReceipts     []string `yaml:"read_receipts"`

	JobDetailText string `yaml:"job_detail_text"`
}

// DefaultSelectors matches the recruiting site's geek chat page.
func DefaultSelectors() Selectors {
	return Selectors{
		List:             "ul.im-list",
		Item:             "li.message-item",
		RecruiterClass:   "item-friend",
		SelfClass:        "item-myself",
		SystemClass:      "item-system",
		IDAttr:           "data-mid",
		Time:             ".item-time .time",
		Input:            "#chat-input",
		NoiseMarkers:     []string{"你与该职位竞争者PK情况"},
		Image:            ".item-image, .message-image",
		ImagePlaceholder: "[image]",
		CardTitle:        ".message-card-top-title",
		DialogTitle:      ".msg-dialog-title",
		DialogDesc:       ".msg-dialog-desc",
		Text:             ".message-content .text p span",
		TextFallbacks:    []string{".message-content .text", ".message-content", ".text"},
		ReadReceipts:     []string{"已读", "送达"},
		JobDetailText:    ".job-sec-text",
	}
}

// WithDefaults fills every empty field from DefaultSelectors.
func (s Selectors) WithDefaults() Selectors {
	d := DefaultSelectors()
	str := func(v *string, def string) {
		if *v == "" {
			*v = def
		}
	}
	list := func(v *[]string, def []string) {
		if len(*v) == 0 {
			*v = def
		}
	}

	str(&s.List, d.List)
	str(&s.Item, d.Item)
	str(&s.RecruiterClass, d.RecruiterClass)
	str(&s.SelfClass, d.SelfClass)
	str(&s.SystemClass, d.SystemClass)
	str(&s.IDAttr, d.IDAttr)
	str(&s.Time, d.Time)
	str(&s.Input, d.Input)
	list(&s.NoiseMarkers, d.NoiseMarkers)
	str(&s.Image, d.Image)
	str(&s.ImagePlaceholder, d.ImagePlaceholder)
	str(&s.CardTitle, d.CardTitle)
	str(&s.DialogTitle, d.DialogTitle)
	str(&s.DialogDesc, d.DialogDesc)
	str(&s.Text, d.Text)
	list(&s.TextFallbacks, d.TextFallbacks)
	list(&s.ReadReceipts, d.ReadReceipts)
	str(&s.JobDetailText, d.JobDetailText)
	return s
}
