package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/boginw/jsonapi/queryable/compiler"
	"github.com/boginw/jsonapi/queryable/descriptor"
	"github.com/boginw/jsonapi/queryable/executor"
	"github.com/boginw/jsonapi/queryable/storage"
)

func main() {
	var schemaPath string
	var dataPath string
	var queryPath string
	var dbPath string
	var planOnly bool
	var useColor bool
	var help bool

	flag.StringVar(&schemaPath, "schema", "", "schema YAML file")
	flag.StringVar(&dataPath, "data", "", "dataset YAML file")
	flag.StringVar(&queryPath, "query", "", "query descriptor YAML file")
	flag.StringVar(&dbPath, "db", "", "badger database path (memory source when empty)")
	flag.BoolVar(&planOnly, "plan", false, "print the compiled plan without executing")
	flag.BoolVar(&useColor, "color", false, "colorize plan output")
	flag.BoolVar(&help, "h", false, "show help")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s -schema schema.yaml -query query.yaml [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Compiles a resource query descriptor and runs it against a dataset.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s -schema blog.yaml -data posts.yaml -query q.yaml\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -schema blog.yaml -query q.yaml -plan -color\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -schema blog.yaml -data posts.yaml -db blog.db -query q.yaml\n", os.Args[0])
	}
	flag.Parse()

	if help {
		flag.Usage()
		os.Exit(0)
	}
	if queryPath == "" && flag.NArg() > 0 {
		queryPath = flag.Arg(0)
	}
	if schemaPath == "" || queryPath == "" {
		flag.Usage()
		os.Exit(1)
	}

	schemaData, err := os.ReadFile(schemaPath)
	if err != nil {
		log.Fatalf("Failed to read schema: %v", err)
	}
	catalog, model, err := descriptor.LoadSchema(schemaData)
	if err != nil {
		log.Fatalf("Failed to load schema: %v", err)
	}

	queryData, err := os.ReadFile(queryPath)
	if err != nil {
		log.Fatalf("Failed to read query: %v", err)
	}
	layer, err := descriptor.ParseLayer(queryData)
	if err != nil {
		log.Fatalf("Failed to parse query: %v", err)
	}

	comp := compiler.New(catalog, model)
	source, err := comp.SourceFor(layer.ResourceType)
	if err != nil {
		log.Fatalf("Failed to resolve resource: %v", err)
	}
	compiled, err := comp.Compile(layer, source)
	if err != nil {
		log.Fatalf("Failed to compile query: %v", err)
	}

	fmt.Printf("Query: %s\n\nPlan:\n%s\n", layer, executor.FormatPlan(compiled, useColor))
	if planOnly {
		return
	}

	recordSource, cleanup, err := openSource(dataPath, dbPath)
	if err != nil {
		log.Fatalf("Failed to open data source: %v", err)
	}
	defer cleanup()

	exec := executor.New(recordSource, model)
	start := time.Now()
	records, err := exec.Execute(compiled)
	elapsed := time.Since(start)
	if err != nil {
		log.Fatalf("Execution error: %v", err)
	}

	fmt.Println()
	executor.PrintRecords(records)
	fmt.Printf("(%.3fms)\n", float64(elapsed.Microseconds())/1000.0)
}

// openSource builds the record source: a Badger store when a db path is
// given, otherwise an in-memory source. A dataset file, when present, is
// loaded into whichever source is used.
func openSource(dataPath, dbPath string) (executor.Source, func(), error) {
	var records []*executor.Record
	if dataPath != "" {
		data, err := os.ReadFile(dataPath)
		if err != nil {
			return nil, nil, fmt.Errorf("read dataset: %w", err)
		}
		records, err = descriptor.LoadDataset(data)
		if err != nil {
			return nil, nil, err
		}
	}

	if dbPath == "" {
		mem := executor.NewMemorySource()
		mem.Add(records...)
		return mem, func() {}, nil
	}

	store, err := storage.Open(dbPath)
	if err != nil {
		return nil, nil, err
	}
	if len(records) > 0 {
		if err := store.Put(records...); err != nil {
			store.Close()
			return nil, nil, err
		}
	}
	return store, func() { store.Close() }, nil
}
