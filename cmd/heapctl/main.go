// Command heapctl is a small operator CLI over the heap-store catalog: it
// can create a heap file, insert lines of text into it, and dump its
// records back out, mostly useful for poking at the buffer pool by hand.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"

	juju "github.com/juju/errors"

	"github.com/coldharbor/heapstore/catalog"
	"github.com/coldharbor/heapstore/config"
	"github.com/coldharbor/heapstore/heap"
	"github.com/coldharbor/heapstore/logger"
	"github.com/coldharbor/heapstore/status"
)

func main() {
	configPath := flag.String("config", "", "path to heapstore.ini")
	dataDir := flag.String("data-dir", "", "override store.data_dir")
	flag.Parse()

	if flag.NArg() < 2 {
		fmt.Fprintln(os.Stderr, "usage: heapctl <create|insert|scan|dump> <file> [args]")
		os.Exit(2)
	}
	cmd, name := flag.Arg(0), flag.Arg(1)

	cfg := config.NewCfg().Load(&config.CommandLineArgs{ConfigPath: *configPath})
	if *dataDir != "" {
		cfg.DataDir = *dataDir
	}
	if err := logger.InitLogger(logger.LogConfig{LogLevel: cfg.LogLevel, InfoLogPath: cfg.LogInfos, ErrorLogPath: cfg.LogError}); err != nil {
		fmt.Fprintln(os.Stderr, "failed to init logger:", err)
		os.Exit(1)
	}

	cat, err := catalog.Open(cfg)
	if err != nil {
		logger.Fatalf("catalog.Open: %v", err)
	}
	defer cat.Close()

	switch cmd {
	case "create":
		runCreate(cat, name)
	case "insert":
		runInsert(cat, name)
	case "scan":
		runScan(cat, name)
	case "dump":
		runDump(cat)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n", cmd)
		os.Exit(2)
	}
}

func runCreate(cat *catalog.Catalog, name string) {
	hf, err := cat.CreateFile(name)
	if err != nil {
		if juju.IsAlreadyExists(err) || status.IsFileExists(err) {
			logger.Fatalf("heap file %q already exists", name)
		}
		logger.Fatalf("create %q: %v", name, err)
	}
	if err := cat.CloseFile(hf); err != nil {
		logger.Errorf("close %q: %v", name, err)
	}
	fmt.Printf("created %s\n", name)
}

func runInsert(cat *catalog.Catalog, name string) {
	hf, err := cat.OpenFile(name)
	if err != nil {
		logger.Fatalf("open %q: %v", name, err)
	}
	defer cat.CloseFile(hf)

	ins := heap.NewInsertFileScan(hf)
	scanner := bufio.NewScanner(os.Stdin)
	count := 0
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		if _, err := ins.InsertRecord(append([]byte(nil), line...)); err != nil {
			logger.Fatalf("insert line %d: %v", count+1, err)
		}
		count++
	}
	fmt.Printf("inserted %d records into %s\n", count, name)
}

func runScan(cat *catalog.Catalog, name string) {
	hf, err := cat.OpenFile(name)
	if err != nil {
		logger.Fatalf("open %q: %v", name, err)
	}
	defer cat.CloseFile(hf)

	s := heap.NewHeapFileScan(hf)
	if err := s.StartScan(0, 0, heap.StringType, nil, heap.EQ); err != nil {
		logger.Fatalf("startScan: %v", err)
	}
	defer s.EndScan()

	for {
		rid, err := s.ScanNext()
		if err != nil {
			if status.IsFileEOF(err) {
				break
			}
			logger.Fatalf("scanNext: %v", err)
		}
		rec, err := hf.GetRecord(rid)
		if err != nil {
			logger.Fatalf("getRecord(%v): %v", rid, err)
		}
		fmt.Printf("(%d,%d): %s\n", rid.PageNo, rid.SlotNo, rec)
	}
}

func runDump(cat *catalog.Catalog) {
	fmt.Print(cat.BufMgr().DebugDump())
}
