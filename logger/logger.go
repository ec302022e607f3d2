// Package logger provides adapters for popular logger libraries to work with blockframe's Logger interface.
//
// The adapters allow you to use your existing logger without writing boilerplate.
// Note that the standard library's slog.Logger already implements blockframe.Logger directly.
//
// Example with zap:
//
//	import (
//	    "blockframe"
//	    "blockframe/logger"
//	    "go.uber.org/zap"
//	)
//
//	func main() {
//	    zapLogger, _ := zap.NewProduction()
//
//	    df, err := blockframe.NewFrame(cols,
//	        blockframe.WithLogger(logger.NewZap(zapLogger)),
//	    )
//	    if err != nil {
//	        panic(err)
//	    }
//	    _ = df
//	}
package logger
