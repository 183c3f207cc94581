// Package cover composites exportable cover art.
//
// [Renderer.Render] takes a decoded thumbnail and produces a flattened image of
// the same pixel size with, in draw order:
//
//  1. the source image
//  2. a dark vertical gradient rising from the bottom edge to 40% of the height
//  3. the title, greedily wrapped at 85% of the width and stacked upward from a
//     bottom margin of 15% of the height, with a soft drop shadow
//  4. the "E-MusicVibe" brand caption, centered near the bottom
//  5. an optional "AI GENERATED" watermark in the top-right corner
//
// Sizes scale with the image width, so the layout looks the same at any resolution.
// [Renderer.Export] encodes the result as JPEG and writes it atomically under a
// name derived from the title (see [Filename]).
package cover
