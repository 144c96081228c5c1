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
	"bufio"
	"bytes"
	"context"
	"sort"
	"strconv"
	"strings"

	"github.com/klauspost/compress/gzip"

	"sigs.k8s.io/controller-runtime/pkg/log"

	"github.com/ip2asn/engine/pkg/ipasnlog"
)

const maxLineBytes = 1 << 20 // 1MiB, generous headroom over any real description field

// ParseStats summarizes one Parse call: record count, distinct country
// and description counts, and how many lines were skipped as malformed.
type ParseStats struct {
	Records            int
	UniqueCountries    int
	UniqueDescriptions int
	Errors             int
}

// Parse decompresses gzipped, expected-UTF-8 TSV bytes into a Database
// sorted ascending by FirstIP. Malformed lines are skipped and counted,
// never fatal. A decompression failure aborts the parse, and so does a
// single line longer than maxLineBytes.
func Parse(ctx context.Context, gzipped []byte) (*Database, ParseStats, error) {
	ctx, span := startSpan(ctx, "ipasn.Parse")
	defer span.End()

	logger := log.FromContext(ctx).WithName("ipasn.parser")

	reader, err := gzip.NewReader(bytes.NewReader(gzipped))
	if err != nil {
		return nil, ParseStats{}, ParseError("snapshot body", "gzip", err)
	}
	defer reader.Close()

	countryPool := newInternPool()
	descriptionPool := newInternPool()

	var records []AsnRecord

	var stats ParseStats

	scanner := bufio.NewScanner(reader)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	lineNo := 0

	for scanner.Scan() {
		lineNo++

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		record, ok := parseRecord(line, countryPool, descriptionPool)
		if !ok {
			stats.Errors++

			logger.V(1).Info("skipping malformed line", "line", lineNo)

			continue
		}

		records = append(records, record)
	}

	if err := scanner.Err(); err != nil {
		return nil, ParseStats{}, ParseError("snapshot body", "tsv", err)
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].FirstIP.Less(records[j].FirstIP)
	})

	db := &Database{Records: records}

	stats.Records = db.Len()
	stats.UniqueCountries = countryPool.len()
	stats.UniqueDescriptions = descriptionPool.len()

	fields := ipasnlog.ParseFields(stats.Records, stats.Errors).
		Custom("uniqueCountries", stats.UniqueCountries).
		Custom("uniqueDescriptions", stats.UniqueDescriptions)

	logger.Info("database parsed", fields.KeysAndValues()...)

	if db.IsEmpty() {
		logger.Info("parsed database has no records")
	}

	return db, stats, nil
}

// parseRecord parses one non-empty TSV line into a record.  It returns
// ok=false for any malformed field; the caller is responsible for
// counting and logging the skip.
func parseRecord(line string, countryPool, descriptionPool *internPool) (AsnRecord, bool) {
	parts := strings.Split(line, "\t")
	if len(parts) < 3 {
		return AsnRecord{}, false
	}

	firstIP, err := ParseAddr(parts[0])
	if err != nil {
		return AsnRecord{}, false
	}

	lastIP, err := ParseAddr(parts[1])
	if err != nil {
		return AsnRecord{}, false
	}

	// An interval must stay within one address family and run forwards.
	if !sameFamily(firstIP, lastIP) || lastIP.Less(firstIP) {
		return AsnRecord{}, false
	}

	number, err := strconv.ParseUint(parts[2], 10, 32)
	if err != nil {
		return AsnRecord{}, false
	}

	var countryField, descriptionField string

	if len(parts) > 3 {
		countryField = parts[3]
	}

	if len(parts) > 4 {
		descriptionField = parts[4]
	}

	record := AsnRecord{
		FirstIP:     firstIP,
		LastIP:      lastIP,
		Number:      uint32(number),
		Country:     countryPool.intern(countryField),
		Description: descriptionPool.intern(descriptionField),
	}

	return record, true
}
