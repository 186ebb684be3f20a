// Package main implements the tesser command line tool. It opens an
// embedded store and exposes container and row operations as
// subcommands.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/tesserdb/tesser/internal/config"
	"github.com/tesserdb/tesser/pkg/container"
	"github.com/tesserdb/tesser/pkg/types"
)

var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	var (
		configFile  string
		dataDir     string
		showVersion bool
	)

	flag.StringVar(&configFile, "config", "", "Path to configuration file (YAML or JSON)")
	flag.StringVar(&dataDir, "data-dir", "", "Base directory for all data files")
	flag.BoolVar(&showVersion, "version", false, "Show version information")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Tesser - Schema-Bound Container Store\n\n")
		fmt.Fprintf(os.Stderr, "Usage: tesser [options] <command> [args]\n\n")
		fmt.Fprintf(os.Stderr, "Commands:\n")
		fmt.Fprintf(os.Stderr, "  create <container> <name:type>... [nokey]   Create a collection\n")
		fmt.Fprintf(os.Stderr, "  drop <container>                            Drop a container\n")
		fmt.Fprintf(os.Stderr, "  info <container>                            Show the container layout\n")
		fmt.Fprintf(os.Stderr, "  put <container> <value>...                  Write one row\n")
		fmt.Fprintf(os.Stderr, "  get <container> <key>                       Read one row by key\n")
		fmt.Fprintf(os.Stderr, "  remove <container> <key>                    Delete one row by key\n")
		fmt.Fprintf(os.Stderr, "  query <container> <tql>                     Run a query and print rows\n")
		fmt.Fprintf(os.Stderr, "\nOptions:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		fmt.Fprintf(os.Stderr, "  TESSER_DATA_DIR        Base directory for data files\n")
		fmt.Fprintf(os.Stderr, "  TESSER_STORAGE_TYPE    Storage type (local, s3)\n")
		fmt.Fprintf(os.Stderr, "  TESSER_S3_BUCKET       Bucket for s3 storage\n")
	}

	flag.Parse()

	if showVersion {
		fmt.Printf("tesser version %s (commit: %s)\n", version, commit)
		os.Exit(0)
	}

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(2)
	}

	// A .env file in the working directory seeds the environment.
	_ = godotenv.Load()

	cfg, err := loadConfig(configFile, dataDir)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx := context.Background()
	store, err := container.Open(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer store.Close()

	if err := run(ctx, store, args[0], args[1:]); err != nil {
		log.Fatalf("%s: %v", args[0], err)
	}
}

func loadConfig(configFile, dataDir string) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if configFile != "" {
		cfg, err = config.LoadFromFile(configFile)
		if err != nil {
			return nil, err
		}
	} else {
		cfg = config.DefaultConfig()
	}
	config.LoadFromEnv(cfg)
	if dataDir != "" {
		cfg.DataDir = dataDir
	}
	cfg.Resolve()
	return cfg, cfg.Validate()
}

func run(ctx context.Context, store *container.Store, command string, args []string) error {
	switch command {
	case "create":
		return cmdCreate(store, args)
	case "drop":
		return cmdDrop(store, args)
	case "info":
		return cmdInfo(store, args)
	case "put":
		return cmdPut(ctx, store, args)
	case "get":
		return cmdGet(ctx, store, args)
	case "remove":
		return cmdRemove(ctx, store, args)
	case "query":
		return cmdQuery(ctx, store, args)
	default:
		flag.Usage()
		return fmt.Errorf("unknown command %q", command)
	}
}

func cmdCreate(store *container.Store, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: create <container> <name:type>... [nokey]")
	}
	name := args[0]
	specs := args[1:]
	rowKey := true
	if specs[len(specs)-1] == "nokey" {
		rowKey = false
		specs = specs[:len(specs)-1]
	}
	columns := make([]types.ColumnInfo, 0, len(specs))
	for _, spec := range specs {
		colName, typeName, ok := strings.Cut(spec, ":")
		if !ok {
			return fmt.Errorf("column %q is not name:type", spec)
		}
		typ, err := parseColumnType(typeName)
		if err != nil {
			return err
		}
		columns = append(columns, types.NewColumnInfo(colName, typ))
	}
	c, err := store.PutContainer(types.NewContainerInfo(name, types.ContainerCollection, columns, rowKey))
	if err != nil {
		return err
	}
	defer c.Close()
	fmt.Printf("created %s (%d columns)\n", c.Name(), len(columns))
	return nil
}

func cmdDrop(store *container.Store, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: drop <container>")
	}
	store.DropContainer(args[0])
	fmt.Printf("dropped %s\n", args[0])
	return nil
}

func cmdInfo(store *container.Store, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: info <container>")
	}
	c, err := openContainer(store, args[0])
	if err != nil {
		return err
	}
	defer c.Close()
	info, err := c.Info()
	if err != nil {
		return err
	}
	fmt.Printf("%s (%s)\n", info.Name(), info.Type())
	for i := 0; i < info.ColumnCount(); i++ {
		col, _ := info.Column(i)
		marker := ""
		if i == 0 && info.RowKeyAssigned() {
			marker = " [key]"
		}
		fmt.Printf("  %s %s%s\n", col.Name, col.Type, marker)
	}
	for _, idx := range info.Indexes() {
		fmt.Printf("  index %s on %s (%s)\n", idx.Name, idx.ColumnName, idx.Type)
	}
	for _, trig := range info.Triggers() {
		fmt.Printf("  trigger %s -> %s\n", trig.Name, trig.URI)
	}
	return nil
}

func cmdPut(ctx context.Context, store *container.Store, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: put <container> <value>...")
	}
	c, err := openContainer(store, args[0])
	if err != nil {
		return err
	}
	defer c.Close()
	info, err := c.Info()
	if err != nil {
		return err
	}
	if len(args)-1 != info.ColumnCount() {
		return fmt.Errorf("container %s takes %d values, got %d", args[0], info.ColumnCount(), len(args)-1)
	}
	row := make(types.Row, info.ColumnCount())
	for i, raw := range args[1:] {
		col, _ := info.Column(i)
		v, err := parseValue(raw, col.Type)
		if err != nil {
			return err
		}
		row[i] = v
	}
	replaced, err := c.Put(ctx, row)
	if err != nil {
		return err
	}
	if replaced {
		fmt.Println("updated")
	} else {
		fmt.Println("created")
	}
	return nil
}

func cmdGet(ctx context.Context, store *container.Store, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: get <container> <key>")
	}
	c, err := openContainer(store, args[0])
	if err != nil {
		return err
	}
	defer c.Close()
	key, err := keyValue(c, args[1])
	if err != nil {
		return err
	}
	row, found, err := c.Get(ctx, key)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("no row with key %s", args[1])
	}
	printRow(row)
	return nil
}

func cmdRemove(ctx context.Context, store *container.Store, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: remove <container> <key>")
	}
	c, err := openContainer(store, args[0])
	if err != nil {
		return err
	}
	defer c.Close()
	key, err := keyValue(c, args[1])
	if err != nil {
		return err
	}
	removed, err := c.Remove(ctx, key)
	if err != nil {
		return err
	}
	if removed {
		fmt.Println("removed")
	} else {
		fmt.Println("no such row")
	}
	return nil
}

func cmdQuery(ctx context.Context, store *container.Store, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: query <container> <tql>")
	}
	c, err := openContainer(store, args[0])
	if err != nil {
		return err
	}
	defer c.Close()
	rs, err := c.Query(args[1]).Fetch(ctx)
	if err != nil {
		return err
	}
	for rs.HasNext() {
		row, err := rs.Next()
		if err != nil {
			return err
		}
		printRow(row)
	}
	fmt.Printf("%d rows\n", rs.Size())
	return nil
}

func openContainer(store *container.Store, name string) (*container.Container, error) {
	c, err := store.GetContainer(name)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, fmt.Errorf("container %q does not exist", name)
	}
	return c, nil
}

func keyValue(c *container.Container, raw string) (types.Value, error) {
	info, err := c.Info()
	if err != nil {
		return types.Value{}, err
	}
	if !info.RowKeyAssigned() {
		return types.Value{}, fmt.Errorf("container %s has no row key", c.Name())
	}
	keyCol, _ := info.Column(0)
	return parseValue(raw, keyCol.Type)
}

func parseColumnType(name string) (types.ColumnType, error) {
	switch strings.ToLower(name) {
	case "string":
		return types.String, nil
	case "bool":
		return types.Bool, nil
	case "byte":
		return types.Byte, nil
	case "short":
		return types.Short, nil
	case "integer", "int":
		return types.Integer, nil
	case "long":
		return types.Long, nil
	case "float":
		return types.Float, nil
	case "double":
		return types.Double, nil
	case "timestamp":
		return types.Timestamp, nil
	case "geometry":
		return types.Geometry, nil
	case "blob":
		return types.Blob, nil
	}
	return 0, fmt.Errorf("unknown column type %q", name)
}

func parseValue(raw string, typ types.ColumnType) (types.Value, error) {
	if raw == "null" {
		return types.NewNull(typ), nil
	}
	switch typ {
	case types.String:
		return types.NewString(raw), nil
	case types.Geometry:
		return types.NewGeometry(raw), nil
	case types.Bool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return types.Value{}, fmt.Errorf("bad bool %q", raw)
		}
		return types.NewBool(b), nil
	case types.Byte:
		n, err := strconv.ParseInt(raw, 10, 8)
		if err != nil {
			return types.Value{}, fmt.Errorf("bad byte %q", raw)
		}
		return types.NewByte(int8(n)), nil
	case types.Short:
		n, err := strconv.ParseInt(raw, 10, 16)
		if err != nil {
			return types.Value{}, fmt.Errorf("bad short %q", raw)
		}
		return types.NewShort(int16(n)), nil
	case types.Integer:
		n, err := strconv.ParseInt(raw, 10, 32)
		if err != nil {
			return types.Value{}, fmt.Errorf("bad integer %q", raw)
		}
		return types.NewInteger(int32(n)), nil
	case types.Long:
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return types.Value{}, fmt.Errorf("bad long %q", raw)
		}
		return types.NewLong(n), nil
	case types.Float:
		f, err := strconv.ParseFloat(raw, 32)
		if err != nil {
			return types.Value{}, fmt.Errorf("bad float %q", raw)
		}
		return types.NewFloat(float32(f)), nil
	case types.Double:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return types.Value{}, fmt.Errorf("bad double %q", raw)
		}
		return types.NewDouble(f), nil
	case types.Timestamp:
		ts, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return types.Value{}, fmt.Errorf("bad timestamp %q, want RFC3339", raw)
		}
		return types.NewTimestamp(ts), nil
	case types.Blob:
		return types.NewBlob([]byte(raw)), nil
	}
	return types.Value{}, fmt.Errorf("type %s is not settable from the command line", typ)
}

func printRow(row types.Row) {
	parts := make([]string, len(row))
	for i, v := range row {
		parts[i] = v.String()
	}
	fmt.Println(strings.Join(parts, "\t"))
}
