package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"subburn/internal/config"
	"subburn/internal/fonts"
	"subburn/internal/style"
)

type styleFlags struct {
	fontFamily   string
	fontSize     int
	textColor    string
	outlineColor string
	outlineWidth float64
	position     string
	aspectRatio  string
}

func (f *styleFlags) register(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringVar(&f.fontFamily, "font", "", "Font family (falls back when not installed)")
	flags.IntVar(&f.fontSize, "size", 0, "Font size")
	flags.StringVar(&f.textColor, "color", "", "Primary text colour in ASS notation (&HAABBGGRR)")
	flags.StringVar(&f.outlineColor, "outline-color", "", "Outline colour in ASS notation")
	flags.Float64Var(&f.outlineWidth, "outline-width", 0, "Outline width")
	flags.StringVar(&f.position, "position", "", "Caption position: top, middle or bottom")
	flags.StringVar(&f.aspectRatio, "aspect-ratio", "", "Frame aspect ratio; 9:16 selects an opaque box")
}

// options returns only the fields whose flags were set so unset values take
// resolver defaults.
func (f *styleFlags) options(cmd *cobra.Command) style.Options {
	changed := cmd.Flags().Changed
	var opts style.Options
	if changed("font") {
		opts.FontFamily = style.String(f.fontFamily)
	}
	if changed("size") {
		opts.FontSize = style.Int(f.fontSize)
	}
	if changed("color") {
		opts.TextColor = style.ColorValue(f.textColor)
	}
	if changed("outline-color") {
		opts.OutlineColor = style.ColorValue(f.outlineColor)
	}
	if changed("outline-width") {
		opts.OutlineWidth = style.Float(f.outlineWidth)
	}
	if changed("position") {
		opts.Position = style.String(f.position)
	}
	if changed("aspect-ratio") {
		opts.AspectRatio = style.String(f.aspectRatio)
	}
	return opts
}

func resolverFor(cfg *config.Config, logger *slog.Logger) style.Resolver {
	return style.Resolver{
		Inventory: fonts.Dir{Path: cfg.Paths.FontsDir},
		Fallback:  cfg.Style.DefaultFont,
		Logger:    logger,
	}
}
