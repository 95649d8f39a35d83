package session

// shimName is the interpreter-side entry point installed into the
// session temp directory. It loads the request envelope, performs the
// call, and writes the response envelope. Errors raised by the call are
// captured into the err record instead of escaping to the prompt, so
// the caller always gets a response file to decode.
const shimName = "octmat_eval"

const shimSource = `function octmat_eval (reqfile, respfile)
  req = load (reqfile);
  result = {'__no_value__'};
  err = '';
  try
    args = req.func_args;
    if iscell (args) && numel (args) == 1 && iscell (args{1})
      args = args{1};
    end
    for i = req.ref_indices(:)'
      args{i} = evalin ('base', args{i});
    end
    if ~isempty (req.dname)
      cd (req.dname);
    end
    nout = double (req.nout);
    if nout > 0
      outs = cell (1, nout);
      [outs{1:nout}] = feval (req.func_name, args{:});
      if ~isempty (req.store_as)
        assignin ('base', req.store_as, outs{1});
      else
        result = outs;
      end
    else
      feval (req.func_name, args{:});
    end
  catch exc
    err = struct ('message', exc.message, 'identifier', exc.identifier);
    try
      err.stack = exc.stack;
    end
  end
  save ('-v6', respfile, 'result', 'err');
end
`
