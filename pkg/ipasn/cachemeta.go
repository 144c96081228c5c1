/*
Copyright 2026 The ip2asn Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package ipasn

import (
	"encoding/json"
	"os"

	"sigs.k8s.io/controller-runtime/pkg/log"
)

// cacheMetadata is the revalidation state persisted alongside the cached
// snapshot body: the ETag and Last-Modified values last returned by the
// origin, so the next fetch can ask it to confirm nothing has changed.
type cacheMetadata struct {
	ETag         *string `json:"etag"`
	LastModified *string `json:"last_modified"`
}

// loadCacheMetadata reads metadata from path. A missing or malformed file
// is not an error: it just means the fetcher starts in fresh state, as if
// this were the first run. Either case is logged at debug verbosity.
func loadCacheMetadata(path string) cacheMetadata {
	logger := log.Log.WithName("ipasn.fetcher")

	data, err := os.ReadFile(path)
	if err != nil {
		logger.V(1).Info("cache metadata unreadable, starting fresh", "path", path, "error", err.Error())
		return cacheMetadata{}
	}

	var meta cacheMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		logger.V(1).Info("cache metadata malformed, starting fresh", "path", path, "error", err.Error())
		return cacheMetadata{}
	}

	return meta
}

// saveCacheMetadata pretty-prints meta to path.
func saveCacheMetadata(path string, meta cacheMetadata) error {
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return HTTPParseError("cache metadata", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return IOError("write", path, err)
	}

	return nil
}
