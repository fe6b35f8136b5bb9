//go:build linux

package engine

import impl "github.com/k2-fsa/sherpa-onnx-go-linux"

// Re-exported so sherpa_engine.go stays platform-agnostic; only the import
// path differs between linux and darwin prebuilt packages.

type offlineRecognizer = impl.OfflineRecognizer
type offlineRecognizerConfig = impl.OfflineRecognizerConfig
type offlineStream = impl.OfflineStream

var newOfflineRecognizer = impl.NewOfflineRecognizer
var deleteOfflineRecognizer = impl.DeleteOfflineRecognizer
var newOfflineStream = impl.NewOfflineStream
var deleteOfflineStream = impl.DeleteOfflineStream
