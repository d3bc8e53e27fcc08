package ui

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/Mohsinsiddi/w3dapp/internal/provider"
)

// Confirm writes prompt to out and reads one line from in. Only "y" and
// "yes" count as yes.
func Confirm(in io.Reader, out io.Writer, prompt string) bool {
	fmt.Fprintf(out, "%s [y/N]: ", StyleWarning.Render(prompt))
	line, _ := bufio.NewReader(in).ReadString('\n')
	line = strings.TrimSpace(strings.ToLower(line))
	return line == "y" || line == "yes"
}

// PromptApprover asks on the terminal before granting account access.
func PromptApprover(in io.Reader, out io.Writer) provider.Approver {
	return provider.ApproveFunc(func(ctx context.Context, req provider.Request) (bool, error) {
		if err := ctx.Err(); err != nil {
			return false, err
		}
		prompt := fmt.Sprintf("Allow %q to use %s (%s)?", req.Purpose, req.Wallet, TruncateAddr(req.Address))
		return Confirm(in, out, prompt), nil
	})
}
