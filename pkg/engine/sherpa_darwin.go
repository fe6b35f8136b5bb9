//go:build darwin

package engine

import impl "github.com/k2-fsa/sherpa-onnx-go-macos"

type offlineRecognizer = impl.OfflineRecognizer
type offlineRecognizerConfig = impl.OfflineRecognizerConfig
type offlineStream = impl.OfflineStream

var newOfflineRecognizer = impl.NewOfflineRecognizer
var deleteOfflineRecognizer = impl.DeleteOfflineRecognizer
var newOfflineStream = impl.NewOfflineStream
var deleteOfflineStream = impl.DeleteOfflineStream
