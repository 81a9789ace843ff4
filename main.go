package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"strings"

	"github.com/carlmjohnson/versioninfo"
	"github.com/iancoleman/strcase"
	"github.com/muesli/reflow/truncate"
	"github.com/urfave/cli/v2"

	"github.com/pdok/skyview/align"
	"github.com/pdok/skyview/config"
	"github.com/pdok/skyview/geom2d"
	"github.com/pdok/skyview/pyramid"
	"github.com/pdok/skyview/tiles"
	"github.com/pdok/skyview/viewport"
)

const CONFIG string = `config`
const VERBOSE string = `verbose`
const VIEW string = `view`
const IMAGE string = `image`
const TILE string = `tile`
const ORDER string = `order`
const WKT string = `wkt`
const SURFACE string = `surface`
const ZOOM string = `zoom`
const CENTER string = `center`
const LOWBANDWIDTH string = `lowBandwidth`
const PIXELRATIO string = `pixelRatio`
const SCENARIO string = `scenario`

const (
	orderNone    = "none"
	orderZ       = "zorder"
	orderNearest = "nearest"
)

// maximum length of WKT and tile lists in log lines
const logLength = 200

//nolint:funlen
func main() {
	app := cli.NewApp()
	app.Name = "skyview"
	app.Usage = "Viewport, tile and frame alignment calculations for astronomical image viewers"
	app.Version = versioninfo.Short()

	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:     CONFIG,
			Aliases:  []string{"c"},
			Usage:    "Preferences YAML file",
			Required: false,
			EnvVars:  []string{strcase.ToScreamingSnake(CONFIG)},
		},
		&cli.BoolFlag{
			Name:     VERBOSE,
			Usage:    "Log calculation details to stderr",
			Required: false,
			EnvVars:  []string{strcase.ToScreamingSnake(VERBOSE)},
		},
	}
	app.Before = func(c *cli.Context) error {
		if c.Bool(VERBOSE) {
			align.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
		}
		return nil
	}

	imageFlag := func() cli.Flag {
		return &cli.StringFlag{
			Name:     IMAGE,
			Aliases:  []string{"i"},
			Usage:    "Image size in pixels. E.g.: 1024x768",
			Required: true,
			EnvVars:  []string{strcase.ToScreamingSnake(IMAGE)},
		}
	}
	tileFlag := func() cli.Flag {
		return &cli.StringFlag{
			Name:     TILE,
			Aliases:  []string{"t"},
			Usage:    "Tile size in pixels, defaults to the preferences. E.g.: 256x256",
			Required: false,
			EnvVars:  []string{strcase.ToScreamingSnake(TILE)},
		}
	}

	app.Commands = []*cli.Command{
		{
			Name:  "tiles",
			Usage: "List the tiles needed to render a view of an image",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     VIEW,
					Usage:    "Required view: xMin,xMax,yMin,yMax,mip. E.g.: 0,1024,0,1024,2",
					Required: true,
					EnvVars:  []string{strcase.ToScreamingSnake(VIEW)},
				},
				imageFlag(),
				tileFlag(),
				&cli.StringFlag{
					Name:     ORDER,
					Aliases:  []string{"o"},
					Usage:    `Request order of the tiles: none, zorder or nearest`,
					Value:    orderNone,
					Required: false,
					EnvVars:  []string{strcase.ToScreamingSnake(ORDER)},
				},
				&cli.BoolFlag{
					Name:     WKT,
					Usage:    "Log the clipped view as WKT",
					Required: false,
					EnvVars:  []string{strcase.ToScreamingSnake(WKT)},
				},
			},
			Action: func(c *cli.Context) error {
				prefs, err := loadPreferences(c)
				if err != nil {
					return err
				}
				view, err := parseView(c.String(VIEW))
				if err != nil {
					return err
				}
				image, err := parseSize(c.String(IMAGE))
				if err != nil {
					return err
				}
				tileSize, err := tileSizeOrDefault(c, prefs)
				if err != nil {
					return err
				}

				required := tiles.RequiredTiles(view, image, tileSize)
				switch c.String(ORDER) {
				case orderNone:
				case orderZ:
					tiles.ZOrder(required)
				case orderNearest:
					required = tiles.NearestFirst(required, view, tileSize)
				default:
					return fmt.Errorf("unknown tile order %q", c.String(ORDER))
				}

				if c.Bool(WKT) {
					if clipped, ok := view.Clip(image.Width, image.Height); ok {
						log.Printf("view %s", clipped.WKT(logLength))
					}
				}
				logTiles(required)
				return writeJSON(c.App.Writer, required)
			},
		},
		{
			Name:  "view",
			Usage: "Compute the required view and tiles of a render surface looking at an image",
			Flags: []cli.Flag{
				imageFlag(),
				tileFlag(),
				&cli.StringFlag{
					Name:     SURFACE,
					Aliases:  []string{"s"},
					Usage:    "Render surface size in screen pixels. E.g.: 800x600",
					Required: true,
					EnvVars:  []string{strcase.ToScreamingSnake(SURFACE)},
				},
				&cli.Float64Flag{
					Name:     ZOOM,
					Aliases:  []string{"z"},
					Usage:    "Zoom level, screen pixels per image pixel. Fits the image when omitted",
					Required: false,
					EnvVars:  []string{strcase.ToScreamingSnake(ZOOM)},
				},
				&cli.StringFlag{
					Name:     CENTER,
					Usage:    "View center in image pixels, defaults to the image center. E.g.: 511.5,383.5",
					Required: false,
					EnvVars:  []string{strcase.ToScreamingSnake(CENTER)},
				},
				&cli.BoolFlag{
					Name:     LOWBANDWIDTH,
					Usage:    "Fetch tiles at half resolution",
					Required: false,
					EnvVars:  []string{strcase.ToScreamingSnake(LOWBANDWIDTH)},
				},
				&cli.Float64Flag{
					Name:     PIXELRATIO,
					Usage:    "Device pixels per screen pixel",
					Required: false,
					EnvVars:  []string{strcase.ToScreamingSnake(PIXELRATIO)},
				},
			},
			Action: func(c *cli.Context) error {
				prefs, err := loadPreferences(c)
				if err != nil {
					return err
				}
				image, err := parseSize(c.String(IMAGE))
				if err != nil {
					return err
				}
				surface, err := parseSize(c.String(SURFACE))
				if err != nil {
					return err
				}
				tileSize, err := tileSizeOrDefault(c, prefs)
				if err != nil {
					return err
				}

				model := viewport.New(image, prefs.ViewportOptions())
				model.SetSurface(surface)
				if c.IsSet(ZOOM) {
					if !model.SetZoom(c.Float64(ZOOM)) {
						return fmt.Errorf("invalid zoom level %v", c.Float64(ZOOM))
					}
				} else {
					model.FitToImage()
				}
				if c.IsSet(CENTER) {
					center, err := parsePoint(c.String(CENTER))
					if err != nil {
						return err
					}
					model.SetCenter(center)
				}

				view := model.RequiredView()
				required := tiles.RequiredTiles(view, image, tileSize)
				logTiles(required)
				return writeJSON(c.App.Writer, struct {
					ZoomLevel float64                `json:"zoomLevel"`
					View      geom2d.ViewRect        `json:"view"`
					Tiles     []tiles.TileCoordinate `json:"tiles"`
				}{model.ZoomLevel(), view, required})
			},
		},
		{
			Name:  "pyramid",
			Usage: "Describe the tile pyramid of an image",
			Flags: []cli.Flag{imageFlag(), tileFlag()},
			Action: func(c *cli.Context) error {
				prefs, err := loadPreferences(c)
				if err != nil {
					return err
				}
				image, err := parseSize(c.String(IMAGE))
				if err != nil {
					return err
				}
				tileSize, err := tileSizeOrDefault(c, prefs)
				if err != nil {
					return err
				}
				p, ok := pyramid.New(image, tileSize)
				if !ok {
					return fmt.Errorf("no pyramid for image %s and tile %s", c.String(IMAGE), c.String(TILE))
				}
				return writeJSON(c.App.Writer, &p)
			},
		},
		{
			Name:  "align",
			Usage: "Replay a scenario of linked frames and print the resulting views",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     SCENARIO,
					Usage:    "Scenario YAML file",
					Required: true,
					EnvVars:  []string{strcase.ToScreamingSnake(SCENARIO)},
				},
			},
			Action: func(c *cli.Context) error {
				prefs, err := loadPreferences(c)
				if err != nil {
					return err
				}
				scenario, err := LoadScenario(c.String(SCENARIO))
				if err != nil {
					return err
				}
				log.Printf("=== replaying %d actions on %d frames ===", len(scenario.Actions), len(scenario.Frames))
				result, err := scenario.Run(prefs)
				if err != nil {
					return err
				}
				for _, failure := range result.Failures {
					log.Printf("  %s", failure)
				}
				log.Println("=== done replaying ===")
				return writeJSON(c.App.Writer, result)
			},
		},
	}

	err := app.Run(os.Args)
	if err != nil {
		log.Fatal(err)
	}
}

func loadPreferences(c *cli.Context) (config.Preferences, error) {
	prefs := config.Default()
	if p := c.String(CONFIG); p != "" {
		var err error
		prefs, err = config.Load(p)
		if err != nil {
			return prefs, err
		}
	}
	if c.IsSet(LOWBANDWIDTH) {
		prefs.LowBandwidthMode = c.Bool(LOWBANDWIDTH)
	}
	if c.IsSet(PIXELRATIO) {
		prefs.PixelRatio = c.Float64(PIXELRATIO)
	}
	return prefs, prefs.Validate()
}

func tileSizeOrDefault(c *cli.Context, prefs config.Preferences) (geom2d.Size, error) {
	if !c.IsSet(TILE) {
		return prefs.TileSize(), nil
	}
	return parseSize(c.String(TILE))
}

func logTiles(required []tiles.TileCoordinate) {
	names := make([]string, 0, len(required))
	for _, t := range required {
		names = append(names, t.String())
	}
	log.Printf("%d tiles: %s", len(required), truncate.StringWithTail(strings.Join(names, " "), logLength, "..."))
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
