// Command example opens a dataset and prints one route across Changi.
package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/azybler/route_engine/pkg/engine"
	"github.com/azybler/route_engine/pkg/value"
)

func main() {
	os.Exit(run(os.Args, os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	if len(args) < 2 {
		prog := "example"
		if len(args) > 0 {
			prog = args[0]
		}
		fmt.Fprintf(stderr, "Usage: %s data.route\n", prog)
		return 1
	}

	logger := log.New(stderr, "", log.LstdFlags)

	cfg := engine.DefaultConfig(args[1])
	cfg.Algorithm = engine.CH
	eng, err := engine.New(cfg)
	if err != nil {
		logger.Printf("Failed to open dataset: %v", err)
		return 1
	}
	defer eng.Close()

	params := engine.NewRouteParameters(false, false, engine.AnnotationsNodes, engine.GeometriesGeoJSON, engine.OverviewFull)
	params.Coordinates = []engine.Coordinate{
		engine.NewCoordinate(103.9880, 1.3556),
		engine.NewCoordinate(103.9554, 1.3562),
	}

	status, result := eng.Route(context.Background(), params)
	if status != engine.StatusOk {
		code, _ := value.Read(result).Key("code").AsString()
		message, _ := value.Read(result).Key("message").AsString()
		fmt.Fprintf(stdout, "Code: %s\n", code)
		fmt.Fprintf(stdout, "Message: %s\n", message)
		return 1
	}

	if err := printRoute(stdout, result); err != nil {
		logger.Printf("Unexpected result: %v", err)
		return 1
	}
	return 0
}

func printRoute(w io.Writer, result value.Value) error {
	route := value.Read(result).Key("routes").Index(0)

	typ, err := route.Key("geometry").Key("type").AsString()
	if err != nil {
		return err
	}
	fmt.Fprintln(w, typ)

	coords, err := route.Key("geometry").Key("coordinates").AsArray()
	if err != nil {
		return err
	}
	for i := range coords.Len() {
		pair := value.Read(coords).Index(i)
		x, err := pair.Index(0).AsNumber()
		if err != nil {
			return err
		}
		y, err := pair.Index(1).AsNumber()
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%.10g , %.10g\n", x, y)
	}

	distance, err := route.Key("distance").AsNumber()
	if err != nil {
		return err
	}
	duration, err := route.Key("duration").AsNumber()
	if err != nil {
		return err
	}
	if distance == 0 || duration == 0 {
		fmt.Fprint(w, "Note: distance or duration is zero. ")
		fmt.Fprint(w, "You are probably doing a query outside of the OSM extract.\n\n")
	}
	fmt.Fprintf(w, "Distance: %.10g meter\n", distance)
	fmt.Fprintf(w, "Duration: %.10g seconds\n", duration)
	return nil
}
