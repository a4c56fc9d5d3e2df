package executor

import (
	"strings"
	"testing"
)

func TestAdmitDenylist(t *testing.T) {
	tests := []struct {
		name     string
		script   string
		platform string
		token    string
	}{
		{"bash rm", "rm -rf /tmp/x", "bash", "rm"},
		{"bash mkfs", "mkfs.ext4 /dev/sda1", "bash", "mkfs"},
		{"bash shutdown", "sudo shutdown now", "bash", "shutdown"},
		{"powershell remove", "Remove-Item C:\\temp", "powershell", "Remove-Item"},
		{"powershell case insensitive", "remove-item C:\\temp", "powershell", "Remove-Item"},
		{"powershell format", "Format-Volume -DriveLetter D", "powershell", "Format-Volume"},
		{"applescript delete", `tell application "Finder" to delete file x`, "applescript", "delete"},
		{"applescript shutdown", `tell application "System Events" to shut down`, "applescript", "shut down"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Admit(tt.script, tt.platform, PolicyStandard, 10)
			if err == nil {
				t.Fatal("expected rejection")
			}
			if !strings.Contains(err.Error(), tt.token) {
				t.Errorf("error %q does not name offending token %q", err, tt.token)
			}
		})
	}
}

func TestAdmitSafePolicyRequiresAllowlist(t *testing.T) {
	if err := Admit("ls -la", "bash", PolicySafe, 10); err != nil {
		t.Errorf("allowlisted script rejected: %v", err)
	}
	if err := Admit("curl http://example.com", "bash", PolicySafe, 10); err == nil {
		t.Error("safe policy without read-only command should be rejected")
	}
	// Same script passes under standard policy.
	if err := Admit("curl http://example.com", "bash", PolicyStandard, 10); err != nil {
		t.Errorf("standard policy rejected: %v", err)
	}
	if err := Admit("Get-Process | Sort-Object CPU", "powershell", PolicySafe, 10); err != nil {
		t.Errorf("powershell allowlisted script rejected: %v", err)
	}
}

func TestAdmitLimits(t *testing.T) {
	if err := Admit("ls", "bash", PolicySafe, 3601); err == nil {
		t.Error("timeout above maximum should be rejected")
	}
	if err := Admit("ls", "bash", PolicySafe, 3600); err != nil {
		t.Errorf("timeout at maximum rejected: %v", err)
	}
	if err := Admit("ls", "ruby", PolicySafe, 10); err == nil {
		t.Error("unknown platform should be rejected")
	}
	if err := Admit("ls", "bash", Policy("yolo"), 10); err == nil {
		t.Error("unknown policy should be rejected")
	}
	if err := Admit("   ", "bash", PolicyStandard, 10); err == nil {
		t.Error("empty script should be rejected")
	}
}

func TestDangerousTokens(t *testing.T) {
	got := DangerousTokens("dd if=/dev/zero; reboot", "bash")
	if len(got) != 2 {
		t.Fatalf("tokens = %v", got)
	}
	if got := DangerousTokens("echo hello", "bash"); got != nil {
		t.Errorf("clean script flagged: %v", got)
	}
}

func TestParsePriority(t *testing.T) {
	for in, want := range map[string]Priority{
		"":         PriorityNormal,
		"low":      PriorityLow,
		"normal":   PriorityNormal,
		"high":     PriorityHigh,
		"critical": PriorityCritical,
	} {
		got, err := ParsePriority(in)
		if err != nil || got != want {
			t.Errorf("ParsePriority(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParsePriority("urgent"); err == nil {
		t.Error("unknown priority should error")
	}
}
