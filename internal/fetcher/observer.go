package fetcher

// Observer receives progress events while a host is fetched. Both paths are
// fetched concurrently, so implementations must be safe for concurrent use.
type Observer interface {
	OnURL(url string)
	OnRedirect(from, to string)
	OnURLNotFound(url string, code int)
}

// ObserverFuncs adapts plain functions to Observer. Nil fields are skipped.
type ObserverFuncs struct {
	URL         func(url string)
	Redirect    func(from, to string)
	URLNotFound func(url string, code int)
}

func (o ObserverFuncs) OnURL(url string) {
	if o.URL != nil {
		o.URL(url)
	}
}

func (o ObserverFuncs) OnRedirect(from, to string) {
	if o.Redirect != nil {
		o.Redirect(from, to)
	}
}

func (o ObserverFuncs) OnURLNotFound(url string, code int) {
	if o.URLNotFound != nil {
		o.URLNotFound(url, code)
	}
}

// Observers fans events out to several observers.
type Observers []Observer

func (m Observers) OnURL(url string) {
	for _, o := range m {
		if o != nil {
			o.OnURL(url)
		}
	}
}

func (m Observers) OnRedirect(from, to string) {
	for _, o := range m {
		if o != nil {
			o.OnRedirect(from, to)
		}
	}
}

func (m Observers) OnURLNotFound(url string, code int) {
	for _, o := range m {
		if o != nil {
			o.OnURLNotFound(url, code)
		}
	}
}
