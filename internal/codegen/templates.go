package codegen

import "strings"

// matchThreshold is the minimum Jaccard overlap between a request
// description and a template description for the template to be used.
const matchThreshold = 0.3

// Template is a canned script with a description used for matching.
type Template struct {
	Name        string
	Description string
	Script      string
}

func templatesFor(platform string) []Template {
	switch platform {
	case PlatformPowerShell:
		return powershellTemplates
	case PlatformAppleScript:
		return applescriptTemplates
	case PlatformBash:
		return bashTemplates
	default:
		return nil
	}
}

// matchTemplate returns the best-scoring template for the description and
// its Jaccard score. The template is nil when nothing clears the threshold.
func matchTemplate(description, platform string) (*Template, float64) {
	var best *Template
	bestScore := 0.0
	templates := templatesFor(platform)
	for i := range templates {
		score := jaccard(description, templates[i].Description)
		if score > bestScore {
			bestScore = score
			best = &templates[i]
		}
	}
	if best == nil || bestScore <= matchThreshold {
		return nil, bestScore
	}
	return best, bestScore
}

// jaccard computes word-set overlap between two lowercased strings.
func jaccard(a, b string) float64 {
	aWords := wordSet(a)
	bWords := wordSet(b)
	if len(aWords) == 0 || len(bWords) == 0 {
		return 0
	}

	intersection := 0
	for w := range aWords {
		if bWords[w] {
			intersection++
		}
	}
	union := len(aWords) + len(bWords) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

func wordSet(s string) map[string]bool {
	set := make(map[string]bool)
	for _, w := range strings.Fields(strings.ToLower(s)) {
		set[w] = true
	}
	return set
}

var powershellTemplates = []Template{
	{
		Name:        "system_info",
		Description: "Get system information and hardware details",
		Script: `# Script Name: System Information Report
# Collects OS, CPU and memory details.

try {
    Write-Host "Gathering system information..." -ForegroundColor Green

    $info = Get-ComputerInfo | Select-Object CsName, OsName, OsVersion, CsProcessors, CsTotalPhysicalMemory
    $info | Format-Table -AutoSize

    Write-Host "System information collected successfully!" -ForegroundColor Green
} catch {
    Write-Error "Failed to collect system information: $($_.Exception.Message)"
    exit 1
}`,
	},
	{
		Name:        "service_monitor",
		Description: "Monitor windows services and report stopped services",
		Script: `# Script Name: Service Monitor
# Reports services that are not running.

try {
    Write-Host "Checking service status..." -ForegroundColor Green

    $stopped = Get-Service | Where-Object { $_.Status -ne 'Running' } | Sort-Object DisplayName
    $stopped | Select-Object DisplayName, Status | Format-Table -AutoSize

    Write-Host "Found $($stopped.Count) stopped services" -ForegroundColor Green
} catch {
    Write-Error "Service check failed: $($_.Exception.Message)"
    exit 1
}`,
	},
	{
		Name:        "disk_report",
		Description: "Report disk space usage on all drives",
		Script: `# Script Name: Disk Space Report
# Lists free and used space per drive.

try {
    Write-Host "Collecting disk usage..." -ForegroundColor Green

    Get-PSDrive -PSProvider FileSystem |
        Select-Object Name, @{n='UsedGB';e={[math]::Round($_.Used/1GB,2)}}, @{n='FreeGB';e={[math]::Round($_.Free/1GB,2)}} |
        Format-Table -AutoSize

    Write-Host "Disk report complete!" -ForegroundColor Green
} catch {
    Write-Error "Disk report failed: $($_.Exception.Message)"
    exit 1
}`,
	},
}

var applescriptTemplates = []Template{
	{
		Name:        "notification",
		Description: "Display a notification message to the user",
		Script: `#!/usr/bin/osascript

-- Script Name: User Notification
-- Shows a notification with a title and message.

on run
    try
        display notification "Automation notice" with title "BK25"
    on error errorMessage
        display dialog "Notification failed: " & errorMessage buttons {"OK"} default button "OK" with icon stop
        return false
    end try
    return true
end run`,
	},
	{
		Name:        "app_launcher",
		Description: "Open an application and bring it to the front",
		Script: `#!/usr/bin/osascript

-- Script Name: Application Launcher
-- Activates an application if it is installed.

on run
    try
        tell application "Finder" to activate
        display notification "Application activated" with title "BK25"
    on error errorMessage
        display dialog "Launch failed: " & errorMessage buttons {"OK"} default button "OK" with icon stop
        return false
    end try
    return true
end run`,
	},
}

var bashTemplates = []Template{
	{
		Name:        "system_monitoring",
		Description: "Monitor system resources cpu memory and disk usage",
		Script: `#!/bin/bash

# Script Name: System Resource Monitor
# Prints a one-shot snapshot of CPU, memory and disk usage.

set -e
set -u

trap 'echo "[ERROR] monitoring failed" >&2; exit 1' ERR

echo "[INFO] System snapshot at $(date)"
echo "--- uptime ---"
uptime
echo "--- memory ---"
head -n 3 /proc/meminfo 2>/dev/null || true
echo "--- disk ---"
df -h
echo "[INFO] Snapshot complete"`,
	},
	{
		Name:        "backup_files",
		Description: "Backup files from a directory into a tar archive",
		Script: `#!/bin/bash

# Script Name: Directory Backup
# Archives a source directory into a timestamped tarball.

set -e
set -u

SRC="${1:-.}"
DEST="backup_$(date +%Y%m%d_%H%M%S).tar.gz"

trap 'echo "[ERROR] backup failed" >&2; exit 1' ERR

echo "[INFO] Backing up ${SRC} to ${DEST}"
tar -czf "${DEST}" "${SRC}"
echo "[INFO] Backup complete: ${DEST}"`,
	},
	{
		Name:        "disk_usage",
		Description: "Report disk usage for mounted filesystems",
		Script: `#!/bin/bash

# Script Name: Disk Usage Report
# Lists filesystem usage sorted by fullest first.

set -e
set -u

trap 'echo "[ERROR] report failed" >&2; exit 1' ERR

echo "[INFO] Disk usage report"
df -h | sort -rk 5 | head -n 20
echo "[INFO] Report complete"`,
	},
}
