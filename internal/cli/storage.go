package cli

import (
	"context"
	"fmt"
	"path/filepath"

	"resumeforge/internal/common"
	"resumeforge/internal/config"
	"resumeforge/internal/errors"
	"resumeforge/internal/resume"
	"resumeforge/internal/storage"
	"resumeforge/internal/types"

	"github.com/spf13/cobra"
)

var storageProviderIDs = []string{storage.ProviderAWS, storage.ProviderCloudinary, storage.ProviderGCP, storage.ProviderPostgres, storage.ProviderMongoDB}

var uploadCmd = &cobra.Command{
	Use:   "upload [file]",
	Short: "Store a resume, profile photo or document",
	Long: `Store a file under the path derived from its category:

  resume     <owner>/<artifact>/resume.pdf
  profile    <owner>/profile/photo.jpg
  document   <owner>/documents/<artifact|document>_<unix-ms>.<ext>

With --sync the file is uploaded to every configured storage backend and
each failure is reported separately.`,
	Args: cobra.ExactArgs(1),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		if _, err := resume.ParseCategory(uploadCategory); err != nil {
			return err
		}
		if uploadSync && uploadConfig.Provider != "" {
			return fmt.Errorf("--sync and --provider cannot be combined")
		}
		return resolveOutput(cmd, &uploadConfig)
	},
	RunE: runUpload,
}

var (
	uploadConfig   common.CommandConfig
	uploadCategory string
	uploadOwner    string
	uploadArtifact string
	uploadSync     bool
)

var urlCmd = &cobra.Command{
	Use:   "url [path]",
	Short: "Resolve the URL of a stored file",
	Args:  cobra.ExactArgs(1),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return resolveOutput(cmd, &urlConfig)
	},
	RunE: runURL,
}

var urlConfig common.CommandConfig

var deleteCmd = &cobra.Command{
	Use:   "delete [path]",
	Short: "Delete a stored file from one provider",
	Args:  cobra.ExactArgs(1),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return resolveOutput(cmd, &deleteConfig)
	},
	RunE: runDelete,
}

var deleteConfig common.CommandConfig

func init() {
	uploadCmd.Flags().StringVarP(&uploadCategory, "category", "c", "", "Artifact category: resume, profile or document (required)")
	uploadCmd.Flags().StringVar(&uploadOwner, "owner", "", "Owner (user) id (required)")
	uploadCmd.Flags().StringVar(&uploadArtifact, "artifact", "", "Resume id, or document type for documents")
	uploadCmd.Flags().BoolVar(&uploadSync, "sync", false, "Upload to every configured storage provider")
	_ = uploadCmd.MarkFlagRequired("category")
	_ = uploadCmd.MarkFlagRequired("owner")
	addOutputFlags(uploadCmd, &uploadConfig)
	addProviderFlag(uploadCmd, &uploadConfig.Provider, storageProviderIDs...)

	addOutputFlags(urlCmd, &urlConfig)
	addProviderFlag(urlCmd, &urlConfig.Provider, storageProviderIDs...)
	_ = urlCmd.MarkFlagRequired("provider")

	addOutputFlags(deleteCmd, &deleteConfig)
	addProviderFlag(deleteCmd, &deleteConfig.Provider, storageProviderIDs...)
	_ = deleteCmd.MarkFlagRequired("provider")
}

func runUpload(cmd *cobra.Command, args []string) error {
	return runWithServices(cmd, func(ctx context.Context, app *appServices, cfg *config.Config, logger *errors.Logger) error {
		category, _ := resume.ParseCategory(uploadCategory)

		data, err := common.NewFileProcessor(logger, cfg.Server.MaxUploadSize).ReadBytes(args[0])
		if err != nil {
			return err
		}
		file := storage.Upload{Data: data, Filename: filepath.Base(args[0])}

		logger.Info("Starting upload",
			"category", category,
			"owner", uploadOwner,
			"size", len(data),
			"sync", uploadSync)

		output := types.UploadOutput{Size: len(data)}
		if uploadSync {
			refs, failures, err := app.Resume.SyncToAll(ctx, category, uploadOwner, uploadArtifact, file)
			if err != nil {
				return fmt.Errorf("failed to sync file: %w", err)
			}
			output.Results = refs
			for _, f := range failures {
				output.Failures = append(output.Failures, types.StorageFailure{Provider: errors.ProviderOf(f), Error: f.Error()})
			}
			if len(refs) == 0 {
				_ = common.NewOutputHandlerWithWriter(logger, cmd.OutOrStdout()).HandleOutput(output, uploadConfig)
				return errors.NewAllProvidersFailed(storage.Domain, failures[len(failures)-1])
			}
		} else {
			ref, err := app.Resume.Store(ctx, category, uploadOwner, uploadArtifact, file, uploadConfig.Provider)
			if err != nil {
				return fmt.Errorf("failed to upload file: %w", err)
			}
			output.Results = []storage.ObjectRef{*ref}
		}

		return common.NewOutputHandlerWithWriter(logger, cmd.OutOrStdout()).HandleOutput(output, uploadConfig)
	})
}

func runURL(cmd *cobra.Command, args []string) error {
	return runWithServices(cmd, func(ctx context.Context, app *appServices, _ *config.Config, logger *errors.Logger) error {
		url, err := app.Storage.GetFileURL(ctx, urlConfig.Provider, args[0])
		if err != nil {
			return fmt.Errorf("failed to resolve file URL: %w", err)
		}
		output := types.FileURLOutput{Provider: urlConfig.Provider, Path: args[0], URL: url}
		return common.NewOutputHandlerWithWriter(logger, cmd.OutOrStdout()).HandleOutput(output, urlConfig)
	})
}

func runDelete(cmd *cobra.Command, args []string) error {
	return runWithServices(cmd, func(ctx context.Context, app *appServices, _ *config.Config, logger *errors.Logger) error {
		deleted, err := app.Storage.DeleteFile(ctx, deleteConfig.Provider, args[0])
		if err != nil {
			return fmt.Errorf("failed to delete file: %w", err)
		}
		output := types.DeleteOutput{Provider: deleteConfig.Provider, Path: args[0], Deleted: deleted}
		if err := common.NewOutputHandlerWithWriter(logger, cmd.OutOrStdout()).HandleOutput(output, deleteConfig); err != nil {
			return err
		}
		if !deleted {
			return errors.NewStorageError(errors.ErrCodeFileNotFound, "file not found: "+args[0], nil)
		}
		return nil
	})
}
