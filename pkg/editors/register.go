package editors

import (
	"github.com/stateful/embedkit/pkg/dispatch"
)

// Register installs the factories of all editors in d.
func Register(d *dispatch.Dispatcher, env *Env) {
	d.Register(dispatch.KindImage, factory(env, NewImageEditor))
	d.Register(dispatch.KindVideo, factory(env, NewVideoEditor))
	d.Register(dispatch.KindExternal, factory(env, NewExternalEditor))
	d.Register(dispatch.KindConcept, factory(env, NewConceptEditor))
	d.Register(dispatch.KindContactBlock, factory(env, NewContactBlockEditor))
	d.Register(dispatch.KindKeyFigure, factory(env, NewKeyFigureEditor))
	d.Register(dispatch.KindCampaignBlock, factory(env, NewCampaignBlockEditor))
	d.Register(dispatch.KindFile, factory(env, NewFileEditor))
}

func factory[C dispatch.Component](env *Env, newEditor func(*Env, dispatch.Props) (C, error)) dispatch.Factory {
	return func(props dispatch.Props) (dispatch.Component, error) {
		c, err := newEditor(env, props)
		if err != nil {
			return nil, err
		}
		return c, nil
	}
}
