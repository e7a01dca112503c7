package style

import (
	"errors"
	"log/slog"
	"strconv"
	"strings"

	"subburn/internal/fonts"
	"subburn/internal/logging"
)

// Defaults applied when an option is absent.
const (
	DefaultFont         = "Arial"
	DefaultFontSize     = 20
	DefaultTextColor    = Color("&H00FFFFFF")
	DefaultOutlineColor = Color("&H00000000")
	DefaultOutlineWidth = 0.5
	DefaultStyleName    = "Default"
)

// ASS numeric codes for alignment (numpad layout) and border style.
const (
	AlignBottomCenter = 2
	AlignMiddleCenter = 5
	AlignTopCenter    = 8

	BorderOutline   = 1
	BorderOpaqueBox = 3
)

// Diagnostic codes recorded during resolution.
const (
	DiagnosticFontFallback         = "font_fallback"
	DiagnosticInventoryUnavailable = "font_inventory_unavailable"
)

// Diagnostic is a non-fatal observation made while resolving a style.
type Diagnostic struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Resolved is a concrete style ready to be rendered into an ASS Style line.
type Resolved struct {
	Name         string       `json:"name"`
	FontName     string       `json:"font_name"`
	FontSize     int          `json:"font_size"`
	PrimaryColor Color        `json:"primary_color"`
	OutlineColor Color        `json:"outline_color"`
	Alignment    int          `json:"alignment"`
	BorderStyle  int          `json:"border_style"`
	OutlineWidth float64      `json:"outline_width"`
	Diagnostics  []Diagnostic `json:"diagnostics,omitempty"`
}

// Resolver maps Options onto a Resolved style using a font inventory.
type Resolver struct {
	Inventory fonts.Inventory
	// Fallback replaces DefaultFont when set.
	Fallback string
	Logger   *slog.Logger
}

// Resolve is shorthand for a Resolver with the default fallback font.
func Resolve(opts Options, inventory fonts.Inventory, logger *slog.Logger) Resolved {
	return Resolver{Inventory: inventory, Logger: logger}.Resolve(opts)
}

// Resolve never fails; problems are reported via Resolved.Diagnostics.
func (r Resolver) Resolve(opts Options) Resolved {
	out := Resolved{
		Name:         DefaultStyleName,
		FontSize:     DefaultFontSize,
		PrimaryColor: DefaultTextColor,
		OutlineColor: DefaultOutlineColor,
		OutlineWidth: DefaultOutlineWidth,
		Alignment:    alignmentFor(opts.Position),
		BorderStyle:  borderStyleFor(opts.AspectRatio),
	}
	if opts.FontSize != nil {
		out.FontSize = *opts.FontSize
	}
	if opts.TextColor != nil {
		out.PrimaryColor = *opts.TextColor
	}
	if opts.OutlineColor != nil {
		out.OutlineColor = *opts.OutlineColor
	}
	if opts.OutlineWidth != nil {
		out.OutlineWidth = *opts.OutlineWidth
	}
	out.FontName, out.Diagnostics = r.selectFont(opts.FontFamily)
	return out
}

func (r Resolver) fallback() string {
	if name := strings.TrimSpace(r.Fallback); name != "" {
		return name
	}
	return DefaultFont
}

func (r Resolver) selectFont(requested *string) (string, []Diagnostic) {
	fallback := r.fallback()
	logger := logging.NewComponentLogger(r.Logger, "style")

	var available map[string]struct{}
	var err error
	if r.Inventory == nil {
		err = fonts.ErrUnavailable
	} else {
		available, err = r.Inventory.Fonts()
	}
	if err != nil {
		diag := Diagnostic{
			Code:    DiagnosticInventoryUnavailable,
			Message: "font inventory unavailable; using " + fallback,
		}
		hint := "check paths.fonts_dir"
		if !errors.Is(err, fonts.ErrUnavailable) {
			hint = "check font directory permissions"
		}
		logging.WarnWithContext(logger, "font inventory unavailable; using fallback font", DiagnosticInventoryUnavailable,
			logging.String("fallback_font", fallback),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, hint),
			logging.String(logging.FieldImpact, "captions render in the fallback font"),
		)
		return fallback, []Diagnostic{diag}
	}

	if requested == nil {
		return fallback, nil
	}
	name := stripFontExtension(*requested)
	if _, ok := available[name]; ok && name != "" {
		return name, nil
	}

	diag := Diagnostic{
		Code:    DiagnosticFontFallback,
		Message: "font " + strconv.Quote(*requested) + " not found; using " + fallback,
	}
	logging.WarnWithContext(logger, "requested font not installed; using fallback font", DiagnosticFontFallback,
		logging.String("requested_font", *requested),
		logging.String("fallback_font", fallback),
		logging.Int("inventory_size", len(available)),
		logging.String(logging.FieldErrorHint, "install the font under paths.fonts_dir or request an installed font"),
		logging.String(logging.FieldImpact, "captions render in the fallback font"),
	)
	return fallback, []Diagnostic{diag}
}

// stripFontExtension removes a trailing .ttf/.otf so "Inter.otf" and "Inter"
// select the same inventory entry.
func stripFontExtension(name string) string {
	if stem, ok := fonts.FontName(name); ok {
		return stem
	}
	return name
}

func alignmentFor(position *string) int {
	if position == nil {
		return AlignBottomCenter
	}
	switch *position {
	case PositionTop:
		return AlignTopCenter
	case PositionCenter:
		return AlignMiddleCenter
	default:
		return AlignBottomCenter
	}
}

func borderStyleFor(aspect *string) int {
	if aspect != nil && *aspect == AspectPortrait {
		return BorderOpaqueBox
	}
	return BorderOutline
}

// StyleLine renders the ASS "Style:" line for the V4+ Styles section.
func (r Resolved) StyleLine() string {
	name := r.Name
	if name == "" {
		name = DefaultStyleName
	}
	fields := []string{
		name,
		r.FontName,
		strconv.Itoa(r.FontSize),
		r.PrimaryColor.String(),
		"&H000000FF",
		r.OutlineColor.String(),
		"&H00000000",
		"0", "0", "0", "0",
		"100", "100",
		"0", "0",
		strconv.Itoa(r.BorderStyle),
		strconv.FormatFloat(r.OutlineWidth, 'f', -1, 64),
		"0",
		strconv.Itoa(r.Alignment),
		"0", "0", "10",
		"0",
	}
	return "Style: " + strings.Join(fields, ",")
}

// StyleFormat is the Format line that StyleLine's fields follow.
const StyleFormat = "Format: Name, Fontname, Fontsize, PrimaryColour, SecondaryColour, OutlineColour, BackColour, Bold, Italic, Underline, StrikeOut, ScaleX, ScaleY, Spacing, Angle, BorderStyle, Outline, Shadow, Alignment, MarginL, MarginR, MarginV, Encoding"
