//go:build integration

package integration

import jsoniter "github.com/json-iterator/go"

var jsonUnmarshal = jsoniter.ConfigCompatibleWithStandardLibrary.Unmarshal
