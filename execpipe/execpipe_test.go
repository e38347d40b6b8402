package execpipe_test

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/goaux/results"
	"github.com/takumakei/partial-gen-go/execpipe"
)

func Example() {
	results.Must(execpipe.CheckPath("sort"))

	out := new(bytes.Buffer)
	results.Must(execpipe.Run(context.Background(), out, strings.NewReader("banana\napple\ncherry\n"), "sort"))
	fmt.Print(out.String())
	// Output:
	// apple
	// banana
	// cherry
}
