package codegen

import "fmt"

// basicSkeleton returns the minimal runnable script used when neither the
// LLM nor a template produced anything. The skeleton carries the verbatim
// description in a TODO so the user can finish it.
func basicSkeleton(platform, description string) string {
	switch platform {
	case PlatformPowerShell:
		return fmt.Sprintf(`# PowerShell: %s
# Generated by BK25 - Enterprise automation without enterprise complexity

param(
    [Parameter(Mandatory=$false)]
    [string]$Verbose = $false
)

try {
    Write-Host "Starting automation: %s" -ForegroundColor Green

    # TODO: Implement automation logic here
    # %s

    Write-Host "Automation completed successfully!" -ForegroundColor Green

} catch {
    Write-Error "Automation failed: $($_.Exception.Message)"
    exit 1
}`, description, description, description)

	case PlatformAppleScript:
		return fmt.Sprintf(`#!/usr/bin/osascript

-- AppleScript: %s
-- Generated by BK25 - Enterprise automation without enterprise complexity

on run
    try
        display notification "Starting automation..." with title "BK25"

        -- TODO: Implement automation logic here
        -- %s

        display notification "Automation completed successfully!" with title "BK25"

    on error errorMessage
        display dialog "Automation failed: " & errorMessage buttons {"OK"} default button "OK" with icon stop
        return false
    end try

    return true
end run`, description, description)

	default:
		return fmt.Sprintf(`#!/bin/bash

# Bash: %s
# Generated by BK25 - Enterprise automation without enterprise complexity

set -e
set -u

# Colors for output
GREEN='\033[0;32m'
RED='\033[0;31m'
NC='\033[0m'

print_status() {
    echo -e "${GREEN}[INFO]${NC} $1"
}

print_error() {
    echo -e "${RED}[ERROR]${NC} $1"
}

# Error handling
trap 'print_error "Error occurred. Cleaning up..."; exit 1' ERR

main() {
    print_status "Starting automation: %s"

    # TODO: Implement automation logic here
    # %s

    print_status "Automation completed successfully!"
}

main "$@"`, description, description, description)
	}
}
