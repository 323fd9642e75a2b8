package node

import (
	"context"

	"github.com/Masterminds/semver/v3"
	"github.com/krupt/go-jsonrpc/jsonrpc"
	"github.com/krupt/go-jsonrpc/method"
	"github.com/krupt/go-jsonrpc/schema"
	"github.com/krupt/go-jsonrpc/utils"
)

// VersionInfo is the result of rpc.version. The numeric parts are omitted when the build
// version is not a semantic version.
type VersionInfo struct {
	Version    string  `json:"version"`
	Major      *uint64 `json:"major,omitempty"`
	Minor      *uint64 `json:"minor,omitempty"`
	Patch      *uint64 `json:"patch,omitempty"`
	Prerelease string  `json:"prerelease,omitempty"`
}

func versionInfo(version string, log utils.SimpleLogger) VersionInfo {
	info := VersionInfo{Version: version}
	v, err := semver.NewVersion(version)
	if err != nil {
		log.Warnw("Failed to parse jsonrpcd version, rpc.version will only report it as is", "version", version)
		return info
	}
	info.Major = utils.HeapPtr(v.Major())
	info.Minor = utils.HeapPtr(v.Minor())
	info.Patch = utils.HeapPtr(v.Patch())
	info.Prerelease = v.Prerelease()
	return info
}

func registerBuiltins(server *jsonrpc.Server, version string, log utils.SimpleLogger) error {
	info := versionInfo(version, log)
	docInfo := schema.Info{Title: ServiceName, Version: version}

	builtins := []jsonrpc.Method{
		jsonrpc.Bind("rpc.discover",
			method.Func[method.Void, *schema.Document](func(context.Context, method.Void) (*schema.Document, error) {
				return schema.Generate(docInfo, server.Methods()), nil
			})),
		jsonrpc.Bind("rpc.version",
			method.Func[method.Void, VersionInfo](func(context.Context, method.Void) (VersionInfo, error) {
				return info, nil
			})),
		jsonrpc.Bind("rpc.ping",
			method.Func[method.Void, string](func(context.Context, method.Void) (string, error) {
				return "pong", nil
			})),
	}
	for _, m := range builtins {
		if err := server.RegisterSystemMethod(m); err != nil {
			return err
		}
	}
	return nil
}
