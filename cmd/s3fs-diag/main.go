package main

import (
	"github.com/NVIDIA/s3fs-diagnostic/pkg/cli"
)

func main() {
	cli.Execute()
}
