package executor

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// sampleProcess reads one resource sample for pid from /proc. On hosts
// without procfs the first read fails and the caller stops sampling.
func sampleProcess(pid int) (MetricsSample, error) {
	sample := MetricsSample{Timestamp: time.Now()}

	stat, err := os.ReadFile(fmt.Sprintf("/proc/%d/stat", pid))
	if err != nil {
		return sample, err
	}
	// comm may contain spaces, so field parsing starts after the closing paren.
	raw := string(stat)
	idx := strings.LastIndexByte(raw, ')')
	if idx < 0 {
		return sample, fmt.Errorf("malformed stat for pid %d", pid)
	}
	fields := strings.Fields(raw[idx+1:])
	// utime and stime are fields 14 and 15 of the full line; after state
	// they sit at offsets 11 and 12.
	if len(fields) < 13 {
		return sample, fmt.Errorf("short stat for pid %d", pid)
	}
	utime, _ := strconv.ParseUint(fields[11], 10, 64)
	stime, _ := strconv.ParseUint(fields[12], 10, 64)
	sample.CPUTicks = utime + stime

	statm, err := os.ReadFile(fmt.Sprintf("/proc/%d/statm", pid))
	if err != nil {
		return sample, err
	}
	parts := strings.Fields(string(statm))
	if len(parts) >= 2 {
		rssPages, _ := strconv.ParseInt(parts[1], 10, 64)
		sample.RSSBytes = rssPages * int64(os.Getpagesize())
	}

	sample.IOOps = readIOOps(pid)
	sample.NetworkConns = countSockets(pid)
	return sample, nil
}

// readIOOps sums the read and write syscall counters from /proc/<pid>/io.
// The file needs same-owner access; zero means unavailable.
func readIOOps(pid int) uint64 {
	raw, err := os.ReadFile(fmt.Sprintf("/proc/%d/io", pid))
	if err != nil {
		return 0
	}
	var total uint64
	for _, line := range strings.Split(string(raw), "\n") {
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		if key == "syscr" || key == "syscw" {
			n, _ := strconv.ParseUint(strings.TrimSpace(value), 10, 64)
			total += n
		}
	}
	return total
}

// countSockets counts open socket descriptors under /proc/<pid>/fd.
func countSockets(pid int) int {
	dir := fmt.Sprintf("/proc/%d/fd", pid)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0
	}
	count := 0
	for _, entry := range entries {
		target, err := os.Readlink(dir + "/" + entry.Name())
		if err != nil {
			continue
		}
		if strings.HasPrefix(target, "socket:") {
			count++
		}
	}
	return count
}
