package core_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pansweep/pansweep/pkg/core"
)

func ExampleScan() {
	dir, err := os.MkdirTemp("", "pansweep-example")
	if err != nil {
		panic(err)
	}
	defer os.RemoveAll(dir)
	_ = os.WriteFile(filepath.Join(dir, "orders.csv"), []byte("id,card\n1,4111111111111111\n"), 0o600)

	matches, sum, err := core.Scan(context.Background(), []string{dir})
	if err != nil {
		panic(err)
	}
	for _, m := range matches {
		fmt.Println(filepath.Base(m.Path), m.Line, m.Brand, core.MaskedPAN(m))
	}
	fmt.Println("files scanned:", sum.FilesScanned)
	// Output:
	// orders.csv 2 Visa 411111XXXXXX1111
	// files scanned: 1
}

func ExampleMaskedLine() {
	m := core.NewCardMatch("Visa", "4111111111111111", "pay.log", 3, "paid with 4111 1111 1111 1111 today")
	fmt.Println(core.MaskedPAN(m))
	fmt.Println(core.MaskedLine(m))
	// Output:
	// 411111XXXXXX1111
	// paid with 411111XXXXXX1111 today true
}
